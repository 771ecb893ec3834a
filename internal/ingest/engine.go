package ingest

import (
	"context"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/metrics"
	"github.com/pfrederiksen/grappling-events/internal/storage"
)

// Resolver resolves location text to coordinates, returning nil on failure.
type Resolver interface {
	Resolve(ctx context.Context, text string) *event.Coordinates
}

// Engine writes batches of drafts to a store.
type Engine struct {
	store    storage.Store
	resolver Resolver
	log      *logger.Logger
	metrics  *metrics.Collector

	// Regeocode skips the stored-coordinate lookup so every event is resolved
	// again. A failed lookup still leaves stored coordinates untouched.
	Regeocode bool
}

// NewEngine creates an engine writing to store.
func NewEngine(store storage.Store, resolver Resolver, log *logger.Logger, m *metrics.Collector) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:    store,
		resolver: resolver,
		log:      log,
		metrics:  m,
	}
}

// Ingest upserts drafts in order and returns how many rows were written.
// Drafts sharing a stable key are written once. A store failure stops the
// batch and is returned as a PersistenceError; rows already written stay.
func (e *Engine) Ingest(ctx context.Context, drafts []event.Draft) (int, error) {
	seen := make(map[string]bool, len(drafts))
	written := 0

	for _, d := range drafts {
		id := d.Key()
		if seen[id] {
			e.log.Debug("Skipping duplicate draft", logger.Fields{"id": id})
			continue
		}
		seen[id] = true

		coords, err := e.coordinates(ctx, id, d)
		if err != nil {
			return written, err
		}

		c, err := event.FromDraft(id, d, coords)
		if err != nil {
			e.log.Warn("Skipping malformed draft", logger.Fields{"id": id, "error": err.Error()})
			continue
		}

		if err := e.store.Upsert(ctx, c); err != nil {
			return written, &PersistenceError{Source: d.Source, ID: id, Err: err}
		}
		written++
	}

	return written, nil
}

// coordinates returns stored coordinates for id when present, otherwise the
// resolver's answer for the draft's location.
func (e *Engine) coordinates(ctx context.Context, id string, d event.Draft) (*event.Coordinates, error) {
	query := d.Query()
	if query == "" {
		return nil, nil
	}

	if !e.Regeocode {
		stored, err := e.store.FindCoordinates(ctx, id)
		if err != nil {
			return nil, &PersistenceError{Source: d.Source, ID: id, Err: err}
		}
		if stored != nil {
			e.metrics.StoredCoordinatesReused(string(d.Source))
			return stored, nil
		}
	}

	if e.resolver == nil {
		return nil, nil
	}
	return e.resolver.Resolve(ctx, query), nil
}
