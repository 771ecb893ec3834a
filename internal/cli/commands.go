package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/grappling-events/internal/calendar"
	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/scraper"
	"github.com/pfrederiksen/grappling-events/internal/storage"
)

func newSourcesCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List adapters, their fetch method and endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			outFormat, err := resolveFormat(format, cmd.OutOrStdout(), FormatTable, FormatJSON)
			if err != nil {
				return err
			}

			adapters, err := scraper.NewAll(event.Sources, nil)
			if err != nil {
				return err
			}
			enabled := make(map[event.Source]bool)
			for _, s := range cfg.EnabledSources() {
				enabled[s] = true
			}

			rows := make([]sourceRow, 0, len(adapters))
			for _, a := range adapters {
				rows = append(rows, sourceRow{
					Source:   a.Source(),
					Method:   a.Method(),
					Endpoint: a.Endpoint(),
					Enabled:  enabled[a.Source()],
				})
			}
			return writeSources(cmd.OutOrStdout(), rows, outFormat)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Output format: table or json (default table on a terminal)")
	return cmd
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored competitions and geocoding coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			outFormat, err := resolveFormat(format, cmd.OutOrStdout(), FormatTable, FormatJSON)
			if err != nil {
				return err
			}

			store, err := storage.Open(cmd.Context(), cfg.StoreOptions())
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}
			return writeStats(cmd.OutOrStdout(), stats, outFormat)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Output format: table or json (default table on a terminal)")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		format  string
		from    string
		sources []string
		sortBy  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump stored competitions as JSON or iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			outFormat := OutputFormat(format)
			if outFormat != FormatJSON && outFormat != FormatICS {
				return fmt.Errorf("invalid format: %s (must be 'json' or 'ics')", format)
			}
			order := SortOrder(sortBy)
			if !order.valid() {
				return fmt.Errorf("invalid sort: %s (must be 'date', 'source' or 'name')", sortBy)
			}

			filter := storage.Filter{}
			if from != "" {
				t, err := time.Parse(event.DateLayout, from)
				if err != nil {
					return fmt.Errorf("invalid --from %q: want YYYY-MM-DD", from)
				}
				filter.From = t
			}
			for _, raw := range sources {
				s, err := event.ParseSource(raw)
				if err != nil {
					return err
				}
				filter.Sources = append(filter.Sources, s)
			}

			store, err := storage.Open(cmd.Context(), cfg.StoreOptions())
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer store.Close()

			comps, err := store.List(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("listing competitions: %w", err)
			}
			sortCompetitions(comps, order)

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if outFormat == FormatICS {
				_, err = fmt.Fprint(w, calendar.Generate(comps, "Grappling Competitions", time.Now()))
				return err
			}
			return writeJSON(w, comps)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or ics")
	cmd.Flags().StringVar(&from, "from", "", "Only competitions starting on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "Only these sources (repeatable)")
	cmd.Flags().StringVar(&sortBy, "sort", string(SortByDate), "Sort order: date, source or name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
