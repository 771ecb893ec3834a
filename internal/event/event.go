package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Source identifies an upstream provider.
type Source string

const (
	SourceIBJJF Source = "ibjjf"
	SourceJJWL  Source = "jjwl"
	SourceAGF   Source = "agf"
	SourceNAGA  Source = "naga"
	SourceADCC  Source = "adcc"
)

// Sources lists every known provider in registration order.
var Sources = []Source{SourceIBJJF, SourceJJWL, SourceAGF, SourceNAGA, SourceADCC}

// Valid reports whether s is one of the known providers.
func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSource converts user input into a Source.
func ParseSource(raw string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown source: %q", raw)
	}
	return s, nil
}

// DateLayout is the ISO calendar date layout used for keys and storage.
const DateLayout = "2006-01-02"

// Coordinates is a resolved geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Draft is an adapter's unpersisted, not-yet-geocoded candidate record.
type Draft struct {
	Source Source
	// Identity is the upstream identity used for the stable key: a slug,
	// a numeric id or a title depending on the provider.
	Identity        string
	Name            string
	LocationText    string
	// GeocodeQuery overrides LocationText as geocoder input when set.
	GeocodeQuery    string
	RegistrationURL string
	StartDate       time.Time
	EndDate         *time.Time
	Gi              bool
	Nogi            bool
	Kids            bool
	RawDetails      map[string]any
}

// Key returns the draft's stable key.
func (d Draft) Key() string {
	return StableKey(d.Source, d.Identity, d.StartDate)
}

// PlaceholderLocation marks an event whose venue is not announced yet.
const PlaceholderLocation = "TBD"

// Query returns the text the geocoder should resolve for this draft, or ""
// when there is nothing worth resolving.
func (d Draft) Query() string {
	if q := strings.TrimSpace(d.GeocodeQuery); q != "" {
		return q
	}
	loc := strings.TrimSpace(d.LocationText)
	if strings.EqualFold(loc, PlaceholderLocation) {
		return ""
	}
	return loc
}

// Competition is the persisted, normalized record.
type Competition struct {
	ID              string          `json:"id"`
	Source          Source          `json:"source"`
	Name            string          `json:"name"`
	LocationText    string          `json:"location"`
	RegistrationURL string          `json:"registration_url"`
	StartDate       time.Time       `json:"-"`
	EndDate         *time.Time      `json:"-"`
	Coords          *Coordinates    `json:"coords,omitempty"`
	Gi              bool            `json:"gi"`
	Nogi            bool            `json:"nogi"`
	Kids            bool            `json:"kids"`
	RawDetails      json.RawMessage `json:"raw_details,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// competitionJSON carries the calendar dates as plain ISO strings.
type competitionJSON struct {
	competitionAlias
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

type competitionAlias Competition

// MarshalJSON writes start and end dates without a time of day.
func (c Competition) MarshalJSON() ([]byte, error) {
	out := competitionJSON{competitionAlias: competitionAlias(c)}
	if !c.StartDate.IsZero() {
		out.StartDate = c.StartDate.Format(DateLayout)
	}
	if c.EndDate != nil {
		out.EndDate = c.EndDate.Format(DateLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the representation written by MarshalJSON.
func (c *Competition) UnmarshalJSON(data []byte) error {
	var in competitionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Competition(in.competitionAlias)
	if in.StartDate != "" {
		t, err := time.Parse(DateLayout, in.StartDate)
		if err != nil {
			return fmt.Errorf("parsing start_date: %w", err)
		}
		c.StartDate = t
	}
	if in.EndDate != "" {
		t, err := time.Parse(DateLayout, in.EndDate)
		if err != nil {
			return fmt.Errorf("parsing end_date: %w", err)
		}
		c.EndDate = &t
	}
	return nil
}

// FromDraft builds the record to persist for d under key id with coords.
// CreatedAt and UpdatedAt are left for the store to maintain.
func FromDraft(id string, d Draft, coords *Coordinates) (Competition, error) {
	c := Competition{
		ID:              id,
		Source:          d.Source,
		Name:            d.Name,
		LocationText:    d.LocationText,
		RegistrationURL: d.RegistrationURL,
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		Coords:          coords,
		Gi:              d.Gi,
		Nogi:            d.Nogi,
		Kids:            d.Kids,
	}
	if len(d.RawDetails) > 0 {
		raw, err := json.Marshal(d.RawDetails)
		if err != nil {
			return Competition{}, fmt.Errorf("encoding raw details: %w", err)
		}
		c.RawDetails = raw
	}
	return c, nil
}
