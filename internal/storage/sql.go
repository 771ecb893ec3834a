package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

//go:embed migrations
var migrationFS embed.FS

// dialect captures the differences between the SQL backends.
type dialect struct {
	name string
	// numbered placeholders ($1, $2) instead of "?"
	numbered bool
	// timeArg converts a timestamp into a bind argument.
	timeArg func(time.Time) any
	// retry wraps a statement; SQLite retries on SQLITE_BUSY.
	retry func(ctx context.Context, op func() error) error
}

func noRetry(_ context.Context, op func() error) error {
	return op()
}

// SQLStore implements Store on database/sql for SQLite and PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

const competitionColumns = `id, source, name, location, registration_url, start_date, end_date,
	lat, lng, gi, nogi, kids, raw_details, created_at, updated_at`

const upsertSQL = `INSERT INTO competitions (` + competitionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	source = excluded.source,
	name = excluded.name,
	location = excluded.location,
	registration_url = excluded.registration_url,
	start_date = excluded.start_date,
	end_date = excluded.end_date,
	lat = CASE WHEN excluded.lat IS NULL OR excluded.lng IS NULL THEN competitions.lat ELSE excluded.lat END,
	lng = CASE WHEN excluded.lat IS NULL OR excluded.lng IS NULL THEN competitions.lng ELSE excluded.lng END,
	gi = excluded.gi,
	nogi = excluded.nogi,
	kids = excluded.kids,
	raw_details = excluded.raw_details,
	updated_at = excluded.updated_at`

// rebind rewrites "?" placeholders for dialects that number them.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) Upsert(ctx context.Context, c event.Competition) error {
	if c.ID == "" {
		return errors.New("upsert: empty id")
	}

	var lat, lng sql.NullFloat64
	if c.Coords != nil {
		lat = sql.NullFloat64{Float64: c.Coords.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: c.Coords.Lng, Valid: true}
	}
	var end sql.NullString
	if c.EndDate != nil {
		end = sql.NullString{String: c.EndDate.Format(event.DateLayout), Valid: true}
	}
	var raw sql.NullString
	if len(c.RawDetails) > 0 {
		raw = sql.NullString{String: string(c.RawDetails), Valid: true}
	}
	now := s.dialect.timeArg(s.now())

	query := s.rebind(upsertSQL)
	err := s.dialect.retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query,
			c.ID, string(c.Source), c.Name, c.LocationText, c.RegistrationURL,
			c.StartDate.Format(event.DateLayout), end,
			lat, lng, c.Gi, c.Nogi, c.Kids, raw,
			now, now,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLStore) FindCoordinates(ctx context.Context, id string) (*event.Coordinates, error) {
	var lat, lng sql.NullFloat64
	query := s.rebind(`SELECT lat, lng FROM competitions WHERE id = ?`)
	err := s.dialect.retry(ctx, func() error {
		return s.db.QueryRowContext(ctx, query, id).Scan(&lat, &lng)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find coordinates %s: %w", id, err)
	}
	if !lat.Valid || !lng.Valid {
		return nil, nil
	}
	return &event.Coordinates{Lat: lat.Float64, Lng: lng.Float64}, nil
}

func (s *SQLStore) List(ctx context.Context, f Filter) ([]event.Competition, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "start_date >= ?")
		args = append(args, f.From.Format(event.DateLayout))
	}
	if len(f.Sources) > 0 {
		marks := make([]string, len(f.Sources))
		for i, src := range f.Sources {
			marks[i] = "?"
			args = append(args, string(src))
		}
		where = append(where, "source IN ("+strings.Join(marks, ", ")+")")
	}

	query := "SELECT " + competitionColumns + " FROM competitions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date, id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	defer rows.Close()

	var out []event.Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*),
		SUM(CASE WHEN lat IS NOT NULL AND lng IS NOT NULL THEN 1 ELSE 0 END),
		MAX(updated_at)
		FROM competitions GROUP BY source`)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{BySource: make(map[event.Source]SourceStats)}
	for rows.Next() {
		var (
			source          string
			total, geocoded int64
			updated         timeValue
		)
		if err := rows.Scan(&source, &total, &geocoded, &updated); err != nil {
			return Stats{}, fmt.Errorf("stats: %w", err)
		}
		stats.add(event.Source(source), int(total), int(geocoded), updated.Time)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanCompetition(rows *sql.Rows) (event.Competition, error) {
	var (
		c                event.Competition
		source           string
		start            timeValue
		end              timeValue
		lat, lng         sql.NullFloat64
		raw              sql.NullString
		created, updated timeValue
	)
	err := rows.Scan(&c.ID, &source, &c.Name, &c.LocationText, &c.RegistrationURL,
		&start, &end, &lat, &lng, &c.Gi, &c.Nogi, &c.Kids, &raw, &created, &updated)
	if err != nil {
		return event.Competition{}, fmt.Errorf("scan competition: %w", err)
	}

	c.Source = event.Source(source)
	c.StartDate = start.Date()
	if !end.Time.IsZero() {
		d := end.Date()
		c.EndDate = &d
	}
	if lat.Valid && lng.Valid {
		c.Coords = &event.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if raw.Valid && raw.String != "" {
		c.RawDetails = []byte(raw.String)
	}
	c.CreatedAt = created.Time
	c.UpdatedAt = updated.Time
	return c, nil
}

// timeValue scans dates and timestamps stored either natively or as text.
type timeValue struct {
	Time time.Time
}

var timeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	event.DateLayout,
}

func (v *timeValue) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		v.Time = time.Time{}
		return nil
	case time.Time:
		v.Time = t
		return nil
	case []byte:
		return v.parse(string(t))
	case string:
		return v.parse(t)
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (v *timeValue) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		v.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			v.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

// Date drops the time of day, keeping the calendar date in UTC.
func (v timeValue) Date() time.Time {
	y, m, d := v.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type migration struct {
	version string
	sql     string
}

func loadMigrations(dir string) ([]migration, error) {
	root := "migrations/" + dir
	entries, err := migrationFS.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile(root + "/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{version: strings.TrimSuffix(name, ".sql"), sql: string(data)})
	}
	return migrations, nil
}

func (s *SQLStore) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations(s.dialect.name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int
		row := tx.QueryRowContext(ctx, s.rebind("SELECT COUNT(1) FROM schema_migrations WHERE version = ?"), m.version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO schema_migrations (version) VALUES (?)"), m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}
