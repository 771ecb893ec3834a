package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

const (
	DefaultMapboxURL = "https://api.mapbox.com/geocoding/v5/mapbox.places/"
	DefaultTimeout   = 10 * time.Second
)

// ErrNotConfigured is returned when the provider has no credentials.
var ErrNotConfigured = errors.New("geocoding provider not configured")

// Provider resolves free text to coordinates. A nil result with a nil error
// means the provider had no match.
type Provider interface {
	Geocode(ctx context.Context, query string) (*event.Coordinates, error)
}

// Mapbox is a client for the Mapbox forward geocoding API.
type Mapbox struct {
	BaseURL    string
	Token      string
	Types      string
	HTTPClient *http.Client
}

// NewMapbox creates a Mapbox client with the given access token.
func NewMapbox(token string) *Mapbox {
	return &Mapbox{
		BaseURL: DefaultMapboxURL,
		Token:   strings.TrimSpace(token),
		Types:   "place,region,country",
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

func (m *Mapbox) endpoint(query string) string {
	base := strings.TrimSpace(m.BaseURL)
	if base == "" {
		base = DefaultMapboxURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	params := url.Values{}
	params.Set("access_token", m.Token)
	params.Set("limit", "1")
	if m.Types != "" {
		params.Set("types", m.Types)
	}
	return fmt.Sprintf("%s%s.json?%s", base, url.PathEscape(query), params.Encode())
}

// Geocode returns the center of the best matching feature.
func (m *Mapbox) Geocode(ctx context.Context, query string) (*event.Coordinates, error) {
	if m.Token == "" {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint(query), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mapbox status %d", resp.StatusCode)
	}

	var data struct {
		Features []struct {
			Center []float64 `json:"center"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(data.Features) == 0 || len(data.Features[0].Center) < 2 {
		return nil, nil
	}

	center := data.Features[0].Center
	return &event.Coordinates{Lat: center[1], Lng: center[0]}, nil
}
