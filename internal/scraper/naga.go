package scraper

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/textparse"
)

const (
	NAGAEventsURL = "https://www.nagafighter.com/events/"
	nagaTimeout   = 30 * time.Second

	// nagaYearTolerance keeps events from the past week in this year.
	nagaYearTolerance = 7
)

// Selectors for the NAGA list-style calendar.
const (
	nagaItemSelector  = ".tribe-events-calendar-list__event"
	nagaTitleSelector = ".tribe-events-calendar-list__event-title a"
	nagaDateSelector  = ".tribe-event-date-start, [class*='datetime'], time, [class*='tribe-events-schedule']"
	nagaVenueSelector = "[class*='venue'], [class*='location']"
)

// nagaDate matches the leading "February 21" of "February 21 @ 8:00 am - 5:00 pm".
var nagaDate = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2})`)

// NAGA scrapes the NAGA events calendar list.
type NAGA struct {
	base
	url string
}

// NewNAGA creates the NAGA adapter.
func NewNAGA(opts Options) *NAGA {
	return &NAGA{
		base: newBase(event.SourceNAGA, nagaTimeout, opts),
		url:  NAGAEventsURL,
	}
}

func (a *NAGA) Method() Method   { return MethodHTML }
func (a *NAGA) Endpoint() string { return a.url }

// Fetch downloads the calendar page and parses its items.
func (a *NAGA) Fetch(ctx context.Context) ([]event.Draft, error) {
	body, err := a.get(ctx, a.url, nil)
	if err != nil {
		return nil, err
	}
	return a.parse(body)
}

func (a *NAGA) parse(body []byte) ([]event.Draft, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Source: a.source, Err: err}
	}

	now := a.now()
	var (
		seen   int
		drafts []event.Draft
	)

	doc.Find(nagaItemSelector).Each(func(_ int, item *goquery.Selection) {
		titleEl := item.Find(nagaTitleSelector).First()
		title := textparse.CollapseSpace(titleEl.Text())
		if title == "" {
			return
		}
		seen++

		dateText := strings.TrimSpace(item.Find(nagaDateSelector).First().Text())
		start, ok := parseNAGADate(dateText, now)
		if !ok {
			a.log.Warn("Could not parse date", logger.Fields{"name": title, "date_text": dateText})
			return
		}

		venueText := visibleText(item.Find(nagaVenueSelector).First().Nodes...)
		href, _ := titleEl.Attr("href")
		drafts = append(drafts, event.Draft{
			Source:          a.source,
			Identity:        title,
			Name:            title,
			LocationText:    nagaAddress(venueText),
			RegistrationURL: resolveURL(a.url, href, a.url),
			StartDate:       start,
			Gi:              true,
			Nogi:            true,
			Kids:            isKids(title),
			RawDetails: map[string]any{
				"dateText":  dateText,
				"venueText": venueText,
			},
		})
	})

	if len(drafts) == 0 {
		return nil, &ZeroRowsError{Source: a.source, Seen: seen}
	}
	return drafts, nil
}

// parseNAGADate reads the month and day from a calendar date fragment and
// infers the year.
func parseNAGADate(text string, now time.Time) (time.Time, bool) {
	m := nagaDate.FindStringSubmatch(textparse.CollapseSpace(text))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := textparse.MonthFromName(m[1])
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	return textparse.Date(textparse.InferYear(month, day, now, nagaYearTolerance), month, day)
}

// nagaAddress takes the street address from a venue block: the venue name
// comes first and the address is on the last line.
func nagaAddress(venue string) string {
	if line := textparse.LastLine(venue); line != "" {
		return textparse.CollapseSpace(line)
	}
	return textparse.CollapseSpace(venue)
}
