package ingest

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/geocode"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/metrics"
	"github.com/pfrederiksen/grappling-events/internal/scraper"
	"github.com/pfrederiksen/grappling-events/internal/storage"
)

// Result is the outcome of one adapter in a run.
type Result struct {
	Source      event.Source   `json:"source"`
	Method      scraper.Method `json:"method"`
	Drafts      int            `json:"drafts"`
	RowsWritten int            `json:"rows_written"`
	Kind        ErrorKind      `json:"error_kind,omitempty"`
	Error       string         `json:"error,omitempty"`
	DurationMS  int64          `json:"duration_ms"`

	Err      error         `json:"-"`
	Duration time.Duration `json:"-"`
}

// OK reports whether the adapter completed without error.
func (r Result) OK() bool {
	return r.Err == nil
}

// RunReport aggregates one run.
type RunReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Result  `json:"results"`
	TotalCount int       `json:"total_count"`
	// GeocodeCacheSize is the number of distinct texts looked up this run.
	GeocodeCacheSize int `json:"geocode_cache_size"`
}

// Failed returns the results that carry an error.
func (r RunReport) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Options configures a Pipeline.
type Options struct {
	Regeocode bool
	Logger    *logger.Logger
	Metrics   *metrics.Collector
}

// Pipeline runs a fixed set of adapters against one store.
type Pipeline struct {
	adapters  []scraper.Adapter
	store     storage.Store
	provider  geocode.Provider
	regeocode bool
	log       *logger.Logger
	metrics   *metrics.Collector
	now       func() time.Time
}

// NewPipeline creates a pipeline. provider may be nil, in which case no
// event is geocoded.
func NewPipeline(adapters []scraper.Adapter, store storage.Store, provider geocode.Provider, opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		adapters:  adapters,
		store:     store,
		provider:  provider,
		regeocode: opts.Regeocode,
		log:       log,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

// Run executes every adapter once, concurrently, and waits for all of them.
// It never fails as a whole: each source's error is captured in its Result.
// The geocode cache lives for exactly this run.
func (p *Pipeline) Run(ctx context.Context) RunReport {
	report := RunReport{
		RunID:     uuid.NewString(),
		StartedAt: p.now().UTC(),
	}
	log := p.log.With(logger.Fields{"run_id": report.RunID})
	log.Info("Starting run", logger.Fields{"adapters": len(p.adapters), "regeocode": p.regeocode})

	cache := geocode.NewCache()
	engine := NewEngine(p.store, geocode.NewResolver(p.provider, cache, log, p.metrics), log, p.metrics)
	engine.Regeocode = p.regeocode

	results := make([]Result, len(p.adapters))
	var wg sync.WaitGroup
	for i, a := range p.adapters {
		wg.Add(1)
		go func(i int, a scraper.Adapter) {
			defer wg.Done()
			results[i] = p.runAdapter(ctx, a, engine, log)
		}(i, a)
	}
	wg.Wait()

	report.Results = results
	for _, r := range results {
		report.TotalCount += r.RowsWritten
	}
	report.GeocodeCacheSize = cache.Size()
	report.FinishedAt = p.now().UTC()
	p.metrics.RunFinished(report.FinishedAt)

	log.Info("Run finished", logger.Fields{
		"total_count":        report.TotalCount,
		"failed_sources":     len(report.Failed()),
		"geocode_cache_size": report.GeocodeCacheSize,
	})
	return report
}

func (p *Pipeline) runAdapter(ctx context.Context, a scraper.Adapter, engine *Engine, log *logger.Logger) (res Result) {
	start := time.Now()
	res = Result{Source: a.Source(), Method: a.Method()}
	log = log.With(logger.Fields{"source": string(a.Source())})

	defer func() {
		if r := recover(); r != nil {
			res.Err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		res.Duration = time.Since(start)
		res.DurationMS = res.Duration.Milliseconds()
		p.record(&res, log)
	}()

	drafts, err := a.Fetch(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Drafts = len(drafts)

	res.RowsWritten, res.Err = engine.Ingest(ctx, drafts)
	return res
}

// record fills in the error fields and reports the result.
func (p *Pipeline) record(res *Result, log *logger.Logger) {
	source := string(res.Source)
	p.metrics.AddRows(source, res.RowsWritten)
	p.metrics.ObserveAdapter(source, res.Duration)

	fields := logger.Fields{
		"method":       string(res.Method),
		"drafts":       res.Drafts,
		"rows_written": res.RowsWritten,
		"duration_ms":  res.DurationMS,
	}

	if res.Err == nil {
		log.Info("Source completed", fields)
		return
	}

	res.Kind = Classify(res.Err)
	res.Error = res.Err.Error()
	fields["kind"] = string(res.Kind)
	p.metrics.AdapterFailed(source, string(res.Kind))

	var panicErr *PanicError
	switch {
	case errors.Is(res.Err, scraper.ErrZeroRows):
		log.Error("Source parsed zero rows, upstream format may have changed", fields, res.Err)
	case errors.As(res.Err, &panicErr):
		fields["stack"] = string(panicErr.Stack)
		log.Error("Source panicked", fields, res.Err)
	default:
		log.Error("Source failed", fields, res.Err)
	}
}
