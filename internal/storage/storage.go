package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverJSON     = "json"
)

// Store persists competitions keyed by stable id.
type Store interface {
	// Upsert inserts c or updates the existing row with the same id. Known
	// coordinates are kept when c carries none.
	Upsert(ctx context.Context, c event.Competition) error
	// FindCoordinates returns the stored coordinates for id, or nil when the
	// record is absent or not geocoded yet.
	FindCoordinates(ctx context.Context, id string) (*event.Coordinates, error)
	List(ctx context.Context, f Filter) ([]event.Competition, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Sources []event.Source
	// From keeps competitions starting on or after this date.
	From time.Time
}

func (f Filter) match(c event.Competition) bool {
	if !f.From.IsZero() && c.StartDate.Before(f.From) {
		return false
	}
	if len(f.Sources) == 0 {
		return true
	}
	for _, s := range f.Sources {
		if c.Source == s {
			return true
		}
	}
	return false
}

// SourceStats summarizes the rows of one source.
type SourceStats struct {
	Total    int `json:"total"`
	Geocoded int `json:"geocoded"`
}

// Stats summarizes the store contents.
type Stats struct {
	Total       int                          `json:"total"`
	Geocoded    int                          `json:"geocoded"`
	BySource    map[event.Source]SourceStats `json:"by_source"`
	LastUpdated time.Time                    `json:"last_updated,omitempty"`
}

// Missing returns the number of rows without coordinates.
func (s Stats) Missing() int {
	return s.Total - s.Geocoded
}

func (s *Stats) add(source event.Source, total, geocoded int, updated time.Time) {
	if s.BySource == nil {
		s.BySource = make(map[event.Source]SourceStats)
	}
	cur := s.BySource[source]
	cur.Total += total
	cur.Geocoded += geocoded
	s.BySource[source] = cur

	s.Total += total
	s.Geocoded += geocoded
	if updated.After(s.LastUpdated) {
		s.LastUpdated = updated
	}
}

// Options selects and configures a backend.
type Options struct {
	Driver      string
	DataDir     string
	DatabaseURL string
	// MaxConnections bounds the PostgreSQL pool. Zero uses the default.
	MaxConnections int
}

// Open opens the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		dir, err := ensureDataDir(opts.DataDir)
		if err != nil {
			return nil, err
		}
		s, err := OpenSQLite(ctx, filepath.Join(dir, "competitions.db"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, opts.DatabaseURL, opts.MaxConnections)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverJSON:
		s, err := NewJSONStore(opts.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", opts.Driver)
	}
}

// ExpandPath expands a leading "~/" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

func ensureDataDir(dataDir string) (string, error) {
	dir, err := ExpandPath(dataDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dir, nil
}
