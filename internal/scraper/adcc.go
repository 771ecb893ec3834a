package scraper

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/textparse"
)

const (
	ADCCBaseURL = "https://adcc-official.com"
	adccTimeout = 15 * time.Second

	adccRemoveSelector = "nav, footer, header, .cart-notification, .announcement-bar"

	// adccFallbackWindow bounds the text read after the last date on a page.
	adccFallbackWindow = 300
	// adccMaxLocation rejects windows that swallowed body copy.
	adccMaxLocation = 120
)

type adccPage struct {
	Category string
	Path     string
}

var adccPages = []adccPage{
	{Category: "Trials", Path: "/pages/trials"},
	{Category: "Open US", Path: "/pages/adcc-open-united-states"},
	{Category: "Open Latin America", Path: "/pages/adcc-open-latin-america"},
	{Category: "Open Canada", Path: "/pages/adcc-open-canada"},
	{Category: "Open Mexico", Path: "/pages/adcc-open-mexico"},
	{Category: "Youth", Path: "/pages/adcc-youth"},
	{Category: "Worlds", Path: "/pages/adcc-world-championships"},
}

var adccDate = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})(?:\s*-\s*(\d{1,2}))?,\s*(20\d{2})\b`)

// adccMarkers end the location text of an event block.
var adccMarkers = []string{
	"REGISTER NOW",
	"REGISTRATION COMING SOON",
	"BOOK HOTEL",
	"CITIZENSHIP REQUIREMENTS",
	"SEE MORE",
}

// ADCC scrapes the free-text ADCC category pages.
type ADCC struct {
	base
	baseURL string
	pages   []adccPage
}

type adccEntry struct {
	Start    time.Time
	End      *time.Time
	Location string
}

// NewADCC creates the ADCC adapter.
func NewADCC(opts Options) *ADCC {
	return &ADCC{
		base:    newBase(event.SourceADCC, adccTimeout, opts),
		baseURL: ADCCBaseURL,
		pages:   adccPages,
	}
}

func (a *ADCC) Method() Method   { return MethodHTML }
func (a *ADCC) Endpoint() string { return a.baseURL }

// Fetch reads every category page. A failing page is logged and skipped;
// the adapter fails only when every page fails.
func (a *ADCC) Fetch(ctx context.Context) ([]event.Draft, error) {
	var (
		drafts []event.Draft
		errs   []error
	)
	seen := make(map[string]bool)

	for _, page := range a.pages {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Source: a.source, URL: a.baseURL, Err: err}
		}

		pageURL := strings.TrimSuffix(a.baseURL, "/") + page.Path
		body, err := a.get(ctx, pageURL, nil)
		if err != nil {
			a.log.Warn("Page request failed", logger.Fields{"category": page.Category, "error": err.Error()})
			errs = append(errs, err)
			continue
		}

		text, err := adccPageText(body)
		if err != nil {
			errs = append(errs, &ParseError{Source: a.source, Err: err})
			continue
		}

		for _, e := range parseFreeText(text) {
			key := e.Start.Format(event.DateLayout) + "|" + strings.ToLower(e.Location)
			if seen[key] {
				continue
			}
			seen[key] = true
			drafts = append(drafts, a.draft(page, pageURL, e))
		}
	}

	if len(errs) == len(a.pages) {
		return nil, errors.Join(errs...)
	}
	if len(drafts) == 0 {
		return nil, &ZeroRowsError{Source: a.source, Seen: len(a.pages) - len(errs)}
	}
	return a.dropStale(drafts), nil
}

func (a *ADCC) draft(page adccPage, pageURL string, e adccEntry) event.Draft {
	return event.Draft{
		Source:          a.source,
		Identity:        e.Location,
		Name:            "ADCC " + page.Category + " - " + e.Location,
		LocationText:    e.Location,
		RegistrationURL: pageURL,
		StartDate:       e.Start,
		EndDate:         e.End,
		Nogi:            true,
		Kids:            page.Category == "Youth",
		RawDetails: map[string]any{
			"category": page.Category,
		},
	}
}

// adccPageText returns the visible text of a page without its chrome.
func adccPageText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find(adccRemoveSelector).Remove()
	return visibleText(doc.Find("body").Nodes...), nil
}

// parseFreeText finds every dated block in text. A block runs from its date
// to the next date, or adccFallbackWindow bytes for the last one. The text
// after the date and before the first marker is the location.
func parseFreeText(text string) []adccEntry {
	matches := adccDate.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	starts := make([]int, len(matches))
	for i, m := range matches {
		starts[i] = m[0]
	}
	windows := textparse.SliceWindows(text, starts, adccFallbackWindow)

	entries := make([]adccEntry, 0, len(matches))
	for i, m := range matches {
		month, ok := textparse.MonthFromName(text[m[2]:m[3]])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(text[m[4]:m[5]])
		year, _ := strconv.Atoi(text[m[8]:m[9]])
		start, ok := textparse.Date(year, month, day)
		if !ok {
			continue
		}

		var end *time.Time
		if m[6] >= 0 {
			endDay, _ := strconv.Atoi(text[m[6]:m[7]])
			if e, ok := textparse.Date(year, month, endDay); ok && !e.Before(start) {
				end = &e
			}
		}

		rest := strings.ToValidUTF8(windows[i][m[1]-m[0]:], "")
		location := textparse.CutAtFirst(textparse.CollapseSpace(rest), adccMarkers)
		if location == "" || utf8.RuneCountInString(location) > adccMaxLocation {
			continue
		}

		entries = append(entries, adccEntry{Start: start, End: end, Location: location})
	}
	return entries
}
