package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"github.com/pfrederiksen/grappling-events/internal/textparse"
)

const (
	JJWLEventsURL   = "https://www.jjworldleague.com/ajax/new_load_events.php"
	jjwlEventURL    = "https://www.jjworldleague.com/events/"
	jjwlFallbackURL = "https://www.jjworldleague.com/registration/"
	jjwlReferer     = "https://www.jjworldleague.com/"
	jjwlTimeout     = 15 * time.Second
)

// jjwlListings are the listing types requested; each is an independent call.
var jjwlListings = []string{"next", "past"}

// JJWL reads events from the JJWL form-POST endpoint.
type JJWL struct {
	base
	url string
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type jjwlEvent struct {
	ID               flexString `json:"id"`
	Status           flexString `json:"estatus"`
	Name             string     `json:"name"`
	URLFriendly      string     `json:"urlfriendly"`
	DateBeg          string     `json:"datebeg"`
	DateEnd          string     `json:"dateend"`
	City             string     `json:"city"`
	Address          string     `json:"address"`
	ShortDescription string     `json:"shortdescription"`
	Gi               flexString `json:"GI"`
	Nogi             flexString `json:"NOGI"`
}

// NewJJWL creates the JJWL adapter.
func NewJJWL(opts Options) *JJWL {
	return &JJWL{
		base: newBase(event.SourceJJWL, jjwlTimeout, opts),
		url:  JJWLEventsURL,
	}
}

func (a *JJWL) Method() Method   { return MethodAPI }
func (a *JJWL) Endpoint() string { return a.url }

// Fetch requests upcoming and past listings. One failing call is tolerated.
func (a *JJWL) Fetch(ctx context.Context) ([]event.Draft, error) {
	var (
		events []jjwlEvent
		errs   []error
	)
	for _, listing := range jjwlListings {
		batch, err := a.fetchListing(ctx, listing)
		if err != nil {
			a.log.Warn("Listing request failed", logger.Fields{"type": listing, "error": err.Error()})
			errs = append(errs, err)
			continue
		}
		events = append(events, batch...)
	}
	if len(errs) == len(jjwlListings) {
		return nil, errors.Join(errs...)
	}
	return a.parse(events)
}

func (a *JJWL) fetchListing(ctx context.Context, listing string) ([]jjwlEvent, error) {
	form := url.Values{}
	form.Set("type", listing)
	form.Set("age", "0")

	body, err := a.postForm(ctx, a.url, form, map[string]string{
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          jjwlReferer,
	})
	if err != nil {
		return nil, err
	}

	// The endpoint labels its JSON as text/html, so the body is decoded
	// regardless of Content-Type.
	var events []jjwlEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, &ParseError{Source: a.source, Err: err}
	}
	return events, nil
}

func (a *JJWL) parse(events []jjwlEvent) ([]event.Draft, error) {
	drafts := make([]event.Draft, 0, len(events))
	for _, e := range events {
		name := strings.TrimSpace(e.Name)
		if name == "" || strings.TrimSpace(e.DateBeg) == "" {
			a.log.Warn("Skipping event without name or date", logger.Fields{"id": string(e.ID)})
			continue
		}

		// datebeg is the event date; dateend is the registration deadline.
		start, err := time.Parse(event.DateLayout, strings.TrimSpace(e.DateBeg))
		if err != nil {
			a.log.Warn("Could not parse date", logger.Fields{"name": name, "date_text": e.DateBeg})
			continue
		}

		identity := strings.TrimSpace(string(e.ID))
		if identity == "" {
			identity = name
		}

		registration := jjwlFallbackURL
		if slug := strings.TrimSpace(e.URLFriendly); slug != "" {
			registration = jjwlEventURL + slug
		}

		gi := e.Gi == "1"
		nogi := e.Nogi == "1"
		address := strings.TrimSpace(e.Address)
		query := address
		if query == "" {
			query = strings.TrimSpace(e.City)
		}
		drafts = append(drafts, event.Draft{
			Source:          a.source,
			Identity:        identity,
			Name:            name,
			LocationText:    jjwlLocation(e.City, address),
			GeocodeQuery:    query,
			RegistrationURL: registration,
			StartDate:       start,
			Gi:              gi,
			Nogi:            nogi,
			Kids:            isKids(name),
			RawDetails: map[string]any{
				"id":               string(e.ID),
				"address":          e.Address,
				"giNogi":           giNogiLabel(gi, nogi),
				"shortdescription": e.ShortDescription,
				"estatus":          string(e.Status),
			},
		})
	}

	if len(drafts) == 0 {
		return nil, &ZeroRowsError{Source: a.source, Seen: len(events)}
	}
	return drafts, nil
}

// jjwlLocation combines the city with the tail of the street address, which
// is usually "STATE, COUNTRY".
func jjwlLocation(city, address string) string {
	city = strings.TrimSpace(city)
	if address == "" {
		if city == "" {
			return event.PlaceholderLocation
		}
		return city
	}
	parts := strings.Split(address, ",")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return textparse.JoinNonEmpty(", ", city, strings.TrimSpace(strings.Join(parts, ",")))
}

func giNogiLabel(gi, nogi bool) string {
	var labels []string
	if gi {
		labels = append(labels, "Gi")
	}
	if nogi {
		labels = append(labels, "No-Gi")
	}
	return strings.Join(labels, " / ")
}
