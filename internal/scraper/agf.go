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
	AGFTournamentsURL = "https://www.americangrapplingfederation.com/tournaments"
	agfTimeout        = 30 * time.Second
)

// Selectors for the AGF schedule table.
const (
	agfRowSelector     = "tbody tr"
	agfMonthSelector   = "span.month"
	agfDaySelector     = "span.day"
	agfLinkSelector    = "a"
	agfTitleSelector   = "span.event-title"
	agfDetailsSelector = "span.event-details"
)

var yearToken = regexp.MustCompile(`\b(20\d{2})\b`)

// AGF scrapes the AGF tournament schedule table.
type AGF struct {
	base
	url string
}

// NewAGF creates the AGF adapter.
func NewAGF(opts Options) *AGF {
	return &AGF{
		base: newBase(event.SourceAGF, agfTimeout, opts),
		url:  AGFTournamentsURL,
	}
}

func (a *AGF) Method() Method   { return MethodHTML }
func (a *AGF) Endpoint() string { return a.url }

// Fetch downloads the schedule page and parses its rows.
func (a *AGF) Fetch(ctx context.Context) ([]event.Draft, error) {
	body, err := a.get(ctx, a.url, nil)
	if err != nil {
		return nil, err
	}
	return a.parse(body)
}

// parse walks the table rows. Date header rows set the carried month and
// day; event rows emit a draft using whatever date is carried.
func (a *AGF) parse(body []byte) ([]event.Draft, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Source: a.source, Err: err}
	}

	now := a.now()
	var (
		month  time.Month
		day    int
		seen   int
		drafts []event.Draft
	)

	doc.Find(agfRowSelector).Each(func(_ int, row *goquery.Selection) {
		monthEl := row.Find(agfMonthSelector).First()
		dayEl := row.Find(agfDaySelector).First()
		if monthEl.Length() > 0 && dayEl.Length() > 0 {
			month, _ = textparse.MonthFromName(strings.TrimSpace(monthEl.Text()))
			day, _ = strconv.Atoi(strings.TrimSpace(dayEl.Text()))
			return
		}

		link := row.Find(agfLinkSelector).First()
		title := row.Find(agfTitleSelector).First()
		if link.Length() == 0 || title.Length() == 0 {
			return
		}
		seen++

		name := textparse.CollapseSpace(title.Text())
		if name == "" || month == 0 || day == 0 {
			a.log.Warn("Skipping row without title or carried date", logger.Fields{"name": name})
			return
		}

		year := now.Year()
		if m := yearToken.FindStringSubmatch(name); m != nil {
			year, _ = strconv.Atoi(m[1])
		}
		start, ok := textparse.Date(year, month, day)
		if !ok {
			a.log.Warn("Invalid carried date", logger.Fields{"name": name, "month": month.String(), "day": day})
			return
		}

		href, _ := link.Attr("href")
		drafts = append(drafts, event.Draft{
			Source:          a.source,
			Identity:        name,
			Name:            name,
			LocationText:    textparse.CollapseSpace(row.Find(agfDetailsSelector).First().Text()),
			RegistrationURL: resolveURL(a.url, href, a.url),
			StartDate:       start,
			Gi:              true,
			Nogi:            true,
			Kids:            isKids(name),
		})
	})

	if len(drafts) == 0 {
		return nil, &ZeroRowsError{Source: a.source, Seen: seen}
	}
	return a.dropStale(drafts), nil
}
