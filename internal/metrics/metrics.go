// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grappling"

// Geocode lookup outcomes.
const (
	GeocodeCacheHit      = "cache_hit"
	GeocodeCacheNegative = "cache_negative"
	GeocodeProviderHit   = "provider_hit"
	GeocodeProviderMiss  = "provider_miss"
	GeocodeProviderError = "provider_error"
	GeocodeSkipped       = "skipped"
)

// Collector records pipeline activity on a private registry.
type Collector struct {
	registry        *prometheus.Registry
	rowsWritten     *prometheus.CounterVec
	adapterFailures *prometheus.CounterVec
	adapterDuration *prometheus.HistogramVec
	geocodeLookups  *prometheus.CounterVec
	storedCoords    *prometheus.CounterVec
	lastRun         prometheus.Gauge
}

// NewCollector constructs and registers the pipeline collectors.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_written_total",
			Help:      "Competitions upserted, by source.",
		}, []string{"source"}),
		adapterFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "adapter_failures_total",
			Help:      "Adapter runs that failed, by source and failure kind.",
		}, []string{"source", "kind"}),
		adapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "adapter_duration_seconds",
			Help:      "Wall time of one adapter run including writes.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source"}),
		geocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "geocode",
			Name:      "lookups_total",
			Help:      "Geocode lookups, by outcome.",
		}, []string{"outcome"}),
		storedCoords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "stored_coordinates_reused_total",
			Help:      "Events whose persisted coordinates made geocoding unnecessary.",
		}, []string{"source"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last pipeline run finished.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.rowsWritten, c.adapterFailures, c.adapterDuration,
		c.geocodeLookups, c.storedCoords, c.lastRun,
	} {
		if err := registry.Register(col); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return c, nil
}

// Registry exposes the underlying registry for gathering.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// AddRows counts upserted rows for a source.
func (c *Collector) AddRows(source string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.rowsWritten.WithLabelValues(source).Add(float64(n))
}

// AdapterFailed counts a failed adapter run.
func (c *Collector) AdapterFailed(source, kind string) {
	if c == nil {
		return
	}
	c.adapterFailures.WithLabelValues(source, kind).Inc()
}

// ObserveAdapter records how long an adapter run took.
func (c *Collector) ObserveAdapter(source string, d time.Duration) {
	if c == nil {
		return
	}
	c.adapterDuration.WithLabelValues(source).Observe(d.Seconds())
}

// GeocodeLookup counts one resolver lookup by outcome.
func (c *Collector) GeocodeLookup(outcome string) {
	if c == nil {
		return
	}
	c.geocodeLookups.WithLabelValues(outcome).Inc()
}

// StoredCoordinatesReused counts a persisted-coordinate short-circuit.
func (c *Collector) StoredCoordinatesReused(source string) {
	if c == nil {
		return
	}
	c.storedCoords.WithLabelValues(source).Inc()
}

// RunFinished stamps the completion time of a pipeline run.
func (c *Collector) RunFinished(at time.Time) {
	if c == nil {
		return
	}
	c.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// RowsWritten exposes the per-source written-rows counter.
func (c *Collector) RowsWritten() *prometheus.CounterVec {
	return c.rowsWritten
}

// GeocodeLookups exposes the lookup counter, labelled by outcome.
func (c *Collector) GeocodeLookups() *prometheus.CounterVec {
	return c.geocodeLookups
}

// StoredCoordinates exposes the stored-coordinate reuse counter.
func (c *Collector) StoredCoordinates() *prometheus.CounterVec {
	return c.storedCoords
}
