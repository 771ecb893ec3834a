package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMapboxGeocode(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"center":[-115.14,36.17]}]}`))
	}))
	defer server.Close()

	m := NewMapbox("tok")
	m.BaseURL = server.URL + "/"

	coords, err := m.Geocode(context.Background(), "Las Vegas, NV")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if coords == nil {
		t.Fatal("Geocode() = nil, want coordinates")
	}
	if coords.Lat != 36.17 || coords.Lng != -115.14 {
		t.Errorf("Geocode() = %+v, want lat 36.17 lng -115.14", *coords)
	}
	if !strings.HasSuffix(gotPath, "/Las%20Vegas%2C%20NV.json") {
		t.Errorf("path = %q, want escaped query with .json suffix", gotPath)
	}
	for _, want := range []string{"access_token=tok", "limit=1", "types=place%2Cregion%2Ccountry"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestMapboxGeocodeNoFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer server.Close()

	m := NewMapbox("tok")
	m.BaseURL = server.URL

	coords, err := m.Geocode(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if coords != nil {
		t.Errorf("Geocode() = %+v, want nil", *coords)
	}
}

func TestMapboxGeocodeErrors(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		m := NewMapbox("  ")
		_, err := m.Geocode(context.Background(), "Austin, TX")
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("Geocode() error = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		m := NewMapbox("bad")
		m.BaseURL = server.URL
		if _, err := m.Geocode(context.Background(), "Austin, TX"); err == nil {
			t.Error("Geocode() expected error for 401")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		m := NewMapbox("tok")
		m.BaseURL = server.URL
		if _, err := m.Geocode(context.Background(), "Austin, TX"); err == nil {
			t.Error("Geocode() expected error for malformed body")
		}
	})
}
