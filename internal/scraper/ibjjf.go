package scraper

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/textparse"
)

const (
	IBJJFEventsURL = "https://ibjjf.com/api/v1/events/upcomings.json"
	ibjjfBaseURL   = "https://ibjjf.com"
	ibjjfReferer   = "https://ibjjf.com/events/championships"
	ibjjfTimeout   = 20 * time.Second

	// ibjjfYearTolerance is how far in the past a same-year date may fall
	// before it is treated as next year's edition.
	ibjjfYearTolerance = 30
)

var nogiPattern = regexp.MustCompile(`(?i)\bno[\s-]?gi\b`)

// IBJJF reads the championship calendar from the IBJJF JSON API.
type IBJJF struct {
	base
	url string
}

type ibjjfResponse struct {
	Championships []ibjjfChampionship `json:"championships"`
}

type ibjjfChampionship struct {
	Name              string `json:"name"`
	Slug              string `json:"slug"`
	URLLogo           string `json:"urlLogo"`
	EventMonth        string `json:"eventMonth"`
	EventIntervalDays string `json:"eventIntervalDays"`
	City              string `json:"city"`
	State             string `json:"state"`
	Country           string `json:"country"`
}

// NewIBJJF creates the IBJJF adapter.
func NewIBJJF(opts Options) *IBJJF {
	return &IBJJF{
		base: newBase(event.SourceIBJJF, ibjjfTimeout, opts),
		url:  IBJJFEventsURL,
	}
}

func (a *IBJJF) Method() Method   { return MethodAPI }
func (a *IBJJF) Endpoint() string { return a.url }

// Fetch downloads and parses the upcoming championships.
func (a *IBJJF) Fetch(ctx context.Context) ([]event.Draft, error) {
	body, err := a.get(ctx, a.url, map[string]string{
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          ibjjfReferer,
	})
	if err != nil {
		return nil, err
	}
	return a.parse(body)
}

func (a *IBJJF) parse(body []byte) ([]event.Draft, error) {
	var data ibjjfResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ParseError{Source: a.source, Err: err}
	}

	now := a.now()
	drafts := make([]event.Draft, 0, len(data.Championships))
	for _, c := range data.Championships {
		name := strings.TrimSpace(c.Name)
		if name == "" || strings.TrimSpace(c.EventIntervalDays) == "" {
			a.log.Warn("Skipping championship without name or dates", logger.Fields{"slug": c.Slug})
			continue
		}

		r, ok := textparse.ParseCompactRange(c.EventIntervalDays, c.EventMonth, now, ibjjfYearTolerance)
		if !ok {
			a.log.Warn("Could not parse date", logger.Fields{"name": name, "date_text": c.EventIntervalDays})
			continue
		}
		end := r.End

		registration := ibjjfBaseURL + "/events/championships"
		identity := name
		if slug := strings.TrimSpace(c.Slug); slug != "" {
			registration = ibjjfBaseURL + "/events/" + slug
			identity = slug
		}

		nogi := nogiPattern.MatchString(name)
		drafts = append(drafts, event.Draft{
			Source:          a.source,
			Identity:        identity,
			Name:            name,
			LocationText:    textparse.JoinNonEmpty(", ", c.City, c.State, c.Country),
			RegistrationURL: registration,
			StartDate:       r.Start,
			EndDate:         &end,
			Gi:              !nogi,
			Nogi:            nogi,
			Kids:            isKids(name),
			RawDetails: map[string]any{
				"eventMonth":        c.EventMonth,
				"eventIntervalDays": c.EventIntervalDays,
				"urlLogo":           c.URLLogo,
			},
		})
	}

	if len(drafts) == 0 {
		return nil, &ZeroRowsError{Source: a.source, Seen: len(data.Championships)}
	}
	return drafts, nil
}
