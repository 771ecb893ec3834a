package geocode

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/metrics"
)

type fakeProvider struct {
	calls  atomic.Int32
	delay  time.Duration
	coords *event.Coordinates
	err    error
}

func (f *fakeProvider) Geocode(ctx context.Context, query string) (*event.Coordinates, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return clone(f.coords), nil
}

func TestResolverCachesHits(t *testing.T) {
	p := &fakeProvider{coords: &event.Coordinates{Lat: 1, Lng: 2}}
	r := NewResolver(p, NewCache(), logger.Nop(), nil)

	for i := 0; i < 3; i++ {
		got := r.Resolve(context.Background(), "Austin, TX")
		if got == nil || got.Lat != 1 || got.Lng != 2 {
			t.Fatalf("Resolve() = %v, want {1 2}", got)
		}
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestResolverNegativeCaching(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{name: "provider error", provider: &fakeProvider{err: errors.New("boom")}},
		{name: "no features", provider: &fakeProvider{}},
		{name: "not configured", provider: &fakeProvider{err: ErrNotConfigured}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.provider, NewCache(), logger.Nop(), nil)

			if got := r.Resolve(context.Background(), "Nowhere"); got != nil {
				t.Errorf("first Resolve() = %+v, want nil", *got)
			}
			if got := r.Resolve(context.Background(), "NOWHERE "); got != nil {
				t.Errorf("second Resolve() = %+v, want nil", *got)
			}
			if n := tt.provider.calls.Load(); n != 1 {
				t.Errorf("provider calls = %d, want 1", n)
			}
		})
	}
}

func TestResolverEmptyText(t *testing.T) {
	p := &fakeProvider{coords: &event.Coordinates{Lat: 1, Lng: 2}}
	r := NewResolver(p, NewCache(), logger.Nop(), nil)

	if got := r.Resolve(context.Background(), "   "); got != nil {
		t.Errorf("Resolve(blank) = %+v, want nil", *got)
	}
	if n := p.calls.Load(); n != 0 {
		t.Errorf("provider calls = %d, want 0", n)
	}
}

func TestResolverNilProvider(t *testing.T) {
	r := NewResolver(nil, NewCache(), logger.Nop(), nil)
	if got := r.Resolve(context.Background(), "Austin, TX"); got != nil {
		t.Errorf("Resolve() = %+v, want nil", *got)
	}
	if _, found := r.Cache().Get("Austin, TX"); !found {
		t.Error("nil provider result was not cached")
	}
}

func TestResolverConcurrentLookupsShareOneCall(t *testing.T) {
	p := &fakeProvider{coords: &event.Coordinates{Lat: 3, Lng: 4}, delay: 20 * time.Millisecond}
	r := NewResolver(p, NewCache(), logger.Nop(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := r.Resolve(context.Background(), "Houston, TX"); got == nil {
				t.Error("Resolve() = nil, want coordinates")
			}
		}()
	}
	wg.Wait()

	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestResolverRecordsMetrics(t *testing.T) {
	m, err := metrics.NewCollector()
	if err != nil {
		t.Fatalf("NewCollector() error = %v", err)
	}

	p := &fakeProvider{coords: &event.Coordinates{Lat: 1, Lng: 2}}
	r := NewResolver(p, NewCache(), logger.Nop(), m)

	r.Resolve(context.Background(), "Austin, TX")
	r.Resolve(context.Background(), "Austin, TX")
	r.Resolve(context.Background(), "")

	if got := testutil.ToFloat64(m.GeocodeLookups().WithLabelValues(metrics.GeocodeProviderHit)); got != 1 {
		t.Errorf("provider_hit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GeocodeLookups().WithLabelValues(metrics.GeocodeCacheHit)); got != 1 {
		t.Errorf("cache_hit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GeocodeLookups().WithLabelValues(metrics.GeocodeSkipped)); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
}
