package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/ingest"
	"github.com/pfrederiksen/grappling-events/internal/scraper"
	"github.com/pfrederiksen/grappling-events/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatICS   OutputFormat = "ics"
)

// resolveFormat validates a --format value. An empty value picks tty on a
// terminal and other everywhere else.
func resolveFormat(raw string, w io.Writer, tty, other OutputFormat) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		if isTerminal(w) {
			return tty, nil
		}
		return other, nil
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'table' or 'json')", raw)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func writeRunReport(w io.Writer, report ingest.RunReport, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, report)
	}

	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		status := "ok"
		if !r.OK() {
			status = string(r.Kind)
		}
		rows = append(rows, []string{
			string(r.Source),
			string(r.Method),
			strconv.Itoa(r.Drafts),
			strconv.Itoa(r.RowsWritten),
			fmt.Sprintf("%.1fs", r.Duration.Seconds()),
			status,
			r.Error,
		})
	}

	fmt.Fprintln(w, renderTable(
		[]string{"Source", "Method", "Drafts", "Written", "Duration", "Status", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintf(w, "\nRun %s: %d rows written, %d of %d sources failed\n",
		report.RunID, report.TotalCount, len(report.Failed()), len(report.Results))
	return nil
}

type sourceRow struct {
	Source   event.Source   `json:"source"`
	Method   scraper.Method `json:"method"`
	Endpoint string         `json:"endpoint"`
	Enabled  bool           `json:"enabled"`
}

func writeSources(w io.Writer, sources []sourceRow, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, sources)
	}

	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		enabled := "yes"
		if !s.Enabled {
			enabled = "no"
		}
		rows = append(rows, []string{string(s.Source), string(s.Method), s.Endpoint, enabled})
	}
	fmt.Fprintln(w, renderTable([]string{"Source", "Method", "Endpoint", "Enabled"}, rows, nil))
	return nil
}

func writeStats(w io.Writer, stats storage.Stats, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, stats)
	}

	sources := make([]string, 0, len(stats.BySource))
	for s := range stats.BySource {
		sources = append(sources, string(s))
	}
	sort.Strings(sources)

	rows := make([][]string, 0, len(sources)+1)
	for _, s := range sources {
		st := stats.BySource[event.Source(s)]
		rows = append(rows, []string{s, strconv.Itoa(st.Total), strconv.Itoa(st.Geocoded), strconv.Itoa(st.Total - st.Geocoded)})
	}
	rows = append(rows, []string{"total", strconv.Itoa(stats.Total), strconv.Itoa(stats.Geocoded), strconv.Itoa(stats.Missing())})

	fmt.Fprintln(w, renderTable(
		[]string{"Source", "Competitions", "Geocoded", "Missing"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
	if !stats.LastUpdated.IsZero() {
		fmt.Fprintf(w, "\nLast updated: %s\n", stats.LastUpdated.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}
