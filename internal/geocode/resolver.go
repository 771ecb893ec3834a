package geocode

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/metrics"
)

// Error describes a failed provider lookup. Resolve logs it and carries on.
type Error struct {
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("geocoding %q: %v", e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Resolver resolves location text through a Provider with caching.
type Resolver struct {
	provider Provider
	cache    *Cache
	group    singleflight.Group
	log      *logger.Logger
	metrics  *metrics.Collector
}

// NewResolver wires a provider to a cache. cache must not be nil.
func NewResolver(provider Provider, cache *Cache, log *logger.Logger, m *metrics.Collector) *Resolver {
	return &Resolver{
		provider: provider,
		cache:    cache,
		log:      log,
		metrics:  m,
	}
}

// Cache returns the resolver's cache.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve returns coordinates for text, or nil when it cannot be resolved.
func (r *Resolver) Resolve(ctx context.Context, text string) *event.Coordinates {
	key := CacheKey(text)
	if key == "" {
		r.metrics.GeocodeLookup(metrics.GeocodeSkipped)
		return nil
	}

	if coords, found := r.cache.Get(key); found {
		r.recordCached(coords)
		return coords
	}

	executed := false
	v, _, _ := r.group.Do(key, func() (interface{}, error) {
		executed = true
		if coords, found := r.cache.Get(key); found {
			r.recordCached(coords)
			return coords, nil
		}
		coords := r.lookup(ctx, text)
		r.cache.Set(key, coords)
		return coords, nil
	})

	coords, _ := v.(*event.Coordinates)
	if !executed {
		r.recordCached(coords)
	}
	return clone(coords)
}

func (r *Resolver) lookup(ctx context.Context, text string) *event.Coordinates {
	if r.provider == nil {
		r.metrics.GeocodeLookup(metrics.GeocodeProviderError)
		r.log.Warn("No geocoding provider, skipping geocode", logger.Fields{"location": text})
		return nil
	}

	coords, err := r.provider.Geocode(ctx, text)
	switch {
	case errors.Is(err, ErrNotConfigured):
		r.metrics.GeocodeLookup(metrics.GeocodeProviderError)
		r.log.Warn("Geocoding token not set, skipping geocode", logger.Fields{"location": text})
		return nil
	case err != nil:
		r.metrics.GeocodeLookup(metrics.GeocodeProviderError)
		r.log.Error("Geocode failed", logger.Fields{"location": text}, &Error{Query: text, Err: err})
		return nil
	case coords == nil:
		r.metrics.GeocodeLookup(metrics.GeocodeProviderMiss)
		r.log.Debug("Geocode returned no features", logger.Fields{"location": text})
		return nil
	}

	r.metrics.GeocodeLookup(metrics.GeocodeProviderHit)
	return coords
}

func (r *Resolver) recordCached(coords *event.Coordinates) {
	if coords == nil {
		r.metrics.GeocodeLookup(metrics.GeocodeCacheNegative)
		return
	}
	r.metrics.GeocodeLookup(metrics.GeocodeCacheHit)
}
