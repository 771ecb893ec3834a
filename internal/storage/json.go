package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

// JSONStore keeps every competition in one snapshot file under the data
// directory, rewritten after each upsert.
type JSONStore struct {
	mu      sync.RWMutex
	path    string
	records map[string]event.Competition
	now     func() time.Time
}

type jsonSnapshot struct {
	UpdatedAt    string              `json:"updated_at"`
	Competitions []event.Competition `json:"competitions"`
}

// NewJSONStore loads or creates <dataDir>/competitions.json.
func NewJSONStore(dataDir string) (*JSONStore, error) {
	dir, err := ensureDataDir(dataDir)
	if err != nil {
		return nil, err
	}

	s := &JSONStore{
		path:    filepath.Join(dir, "competitions.json"),
		records: make(map[string]event.Competition),
		now:     time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the snapshot file location.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var snap jsonSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	for _, c := range snap.Competitions {
		s.records[c.ID] = c
	}
	return nil
}

// save writes the snapshot to a temp file and renames it into place.
// Callers hold the write lock.
func (s *JSONStore) save() error {
	snap := jsonSnapshot{
		UpdatedAt:    s.now().UTC().Format(time.RFC3339),
		Competitions: s.sorted(Filter{}),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

func (s *JSONStore) Upsert(ctx context.Context, c event.Competition) error {
	if c.ID == "" {
		return errors.New("upsert: empty id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	prev, exists := s.records[c.ID]
	c.CreatedAt = now
	if exists {
		c.CreatedAt = prev.CreatedAt
		if c.Coords == nil {
			c.Coords = prev.Coords
		}
	}
	c.UpdatedAt = now
	s.records[c.ID] = c

	if err := s.save(); err != nil {
		if exists {
			s.records[c.ID] = prev
		} else {
			delete(s.records, c.ID)
		}
		return fmt.Errorf("upsert %s: %w", c.ID, err)
	}
	return nil
}

func (s *JSONStore) FindCoordinates(ctx context.Context, id string) (*event.Coordinates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.records[id]
	if !ok || c.Coords == nil {
		return nil, nil
	}
	coords := *c.Coords
	return &coords, nil
}

func (s *JSONStore) List(ctx context.Context, f Filter) ([]event.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(f), nil
}

func (s *JSONStore) sorted(f Filter) []event.Competition {
	out := make([]event.Competition, 0, len(s.records))
	for _, c := range s.records {
		if f.match(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *JSONStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{BySource: make(map[event.Source]SourceStats)}
	for _, c := range s.records {
		geocoded := 0
		if c.Coords != nil {
			geocoded = 1
		}
		stats.add(c.Source, 1, geocoded, c.UpdatedAt)
	}
	return stats, nil
}

func (s *JSONStore) Close() error {
	return nil
}
