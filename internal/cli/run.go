package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/grappling-events/internal/config"
	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/geocode"
	"github.com/pfrederiksen/grappling-events/internal/ingest"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/metrics"
	"github.com/pfrederiksen/grappling-events/internal/scraper"
	"github.com/pfrederiksen/grappling-events/internal/storage"
)

const lockFileName = "run.lock"

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		sources     []string
		regeocode   bool
		metricsFile string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape every enabled source once and upsert the results",
		Long: `Runs every enabled adapter concurrently, geocodes new locations and upserts
the results. One failing source never blocks the others; the command exits
with status 3 when any source failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			outFormat, err := resolveFormat(format, cmd.OutOrStdout(), FormatTable, FormatJSON)
			if err != nil {
				return err
			}
			selected, err := selectSources(cfg, sources)
			if err != nil {
				return err
			}

			log := cfg.Logger(cmd.ErrOrStderr())

			lock, err := acquireRunLock(cfg.DataDir)
			if err != nil {
				return err
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					log.Warn("Failed to release run lock", logger.Fields{"error": err.Error()})
				}
			}()

			ctx := cmd.Context()
			store, err := storage.Open(ctx, cfg.StoreOptions())
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer store.Close()

			collector, err := metrics.NewCollector()
			if err != nil {
				return err
			}

			adapters, err := scraper.NewAll(selected, func(s event.Source) scraper.Options {
				return cfg.ScraperOptions(s, log)
			})
			if err != nil {
				return err
			}

			pipeline := ingest.NewPipeline(adapters, store, newGeocoder(cfg), ingest.Options{
				Regeocode: regeocode,
				Logger:    log,
				Metrics:   collector,
			})
			report := pipeline.Run(ctx)

			if metricsFile != "" {
				if err := collector.WriteTextfile(metricsFile); err != nil {
					log.Error("Failed to write metrics file", logger.Fields{"path": metricsFile}, err)
				}
			}

			if err := writeRunReport(cmd.OutOrStdout(), report, outFormat); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if len(report.Failed()) > 0 {
				return &exitCodeError{code: ExitPartial}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "Run only these sources (repeatable): ibjjf, jjwl, agf, naga, adcc")
	cmd.Flags().BoolVar(&regeocode, "regeocode", false, "Geocode every event again instead of reusing stored coordinates")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	cmd.Flags().StringVar(&format, "format", "", "Output format: table or json (default table on a terminal)")
	return cmd
}

// selectSources returns the explicitly requested sources, or every source
// enabled in cfg. Explicit requests run even when disabled in the file.
func selectSources(cfg config.Config, requested []string) ([]event.Source, error) {
	if len(requested) == 0 {
		return cfg.EnabledSources(), nil
	}
	sources := make([]event.Source, 0, len(requested))
	for _, raw := range requested {
		s, err := event.ParseSource(raw)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// acquireRunLock takes the exclusive run lock in dataDir without waiting.
func acquireRunLock(dataDir string) (*flock.Flock, error) {
	dir, err := storage.ExpandPath(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	lockPath := filepath.Join(dir, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another run is in progress (lock held on %s)", lockPath)
	}
	return lock, nil
}

func newGeocoder(cfg config.Config) *geocode.Mapbox {
	m := geocode.NewMapbox(cfg.Geocode.Token)
	if cfg.Geocode.BaseURL != "" {
		m.BaseURL = cfg.Geocode.BaseURL
	}
	if cfg.Geocode.Timeout > 0 {
		m.HTTPClient.Timeout = cfg.Geocode.Timeout
	}
	return m
}
