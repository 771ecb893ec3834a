package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

const jjwlNext = `[
  {"id": 123, "estatus": "1", "name": "NAGA Youth Open", "urlfriendly": "youth-open",
   "datebeg": "2026-03-07", "dateend": "2026-03-01", "city": "Highlands Ranch",
   "address": "4810 E County Line Rd., Highlands Ranch, CO, United States",
   "GI": "1", "NOGI": "0"},
  {"id": "124", "estatus": "1", "name": "", "datebeg": "2026-03-08", "GI": "1", "NOGI": "1"},
  {"id": "125", "estatus": "1", "name": "Bad Date Open", "datebeg": "March 9", "GI": "1", "NOGI": "1"}
]`

const jjwlPast = `[
  {"id": "99", "estatus": "3", "name": "World League Finals", "urlfriendly": "",
   "datebeg": "2025-11-15", "dateend": "2025-11-01", "city": "", "address": "",
   "GI": "0", "NOGI": "1"}
]`

func jjwlServer(t *testing.T, next, past func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
			t.Errorf("Content-Type = %q, want form encoding", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
			return
		}
		if got := r.PostForm.Get("age"); got != "0" {
			t.Errorf("age = %q, want 0", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		switch r.PostForm.Get("type") {
		case "next":
			next(w)
		case "past":
			past(w)
		default:
			t.Errorf("unexpected type %q", r.PostForm.Get("type"))
		}
	}))
}

func respond(body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { _, _ = w.Write([]byte(body)) }
}

func fail(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadGateway)
}

func TestJJWLFetch(t *testing.T) {
	server := jjwlServer(t, respond(jjwlNext), respond(jjwlPast))
	defer server.Close()

	a := NewJJWL(Options{})
	a.url = server.URL

	drafts, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("Fetch() returned %d drafts, want 2", len(drafts))
	}

	youth := drafts[0]
	if got := youth.Key(); got != "jjwl-123-2026-03-07" {
		t.Errorf("Key() = %q, want jjwl-123-2026-03-07", got)
	}
	if !youth.Gi || youth.Nogi || !youth.Kids {
		t.Errorf("flags gi=%v nogi=%v kids=%v, want gi=true nogi=false kids=true", youth.Gi, youth.Nogi, youth.Kids)
	}
	if youth.LocationText != "Highlands Ranch, CO, United States" {
		t.Errorf("LocationText = %q", youth.LocationText)
	}
	if youth.Query() != "4810 E County Line Rd., Highlands Ranch, CO, United States" {
		t.Errorf("Query() = %q, want full address", youth.Query())
	}
	if youth.RegistrationURL != "https://www.jjworldleague.com/events/youth-open" {
		t.Errorf("RegistrationURL = %q", youth.RegistrationURL)
	}
	if youth.EndDate != nil {
		t.Errorf("EndDate = %v, want nil (dateend is a registration deadline)", youth.EndDate)
	}
	if youth.RawDetails["giNogi"] != "Gi" {
		t.Errorf("RawDetails giNogi = %v, want Gi", youth.RawDetails["giNogi"])
	}

	finals := drafts[1]
	if finals.LocationText != event.PlaceholderLocation {
		t.Errorf("LocationText = %q, want placeholder", finals.LocationText)
	}
	if finals.Query() != "" {
		t.Errorf("Query() = %q, want empty for placeholder", finals.Query())
	}
	if finals.RegistrationURL != jjwlFallbackURL {
		t.Errorf("RegistrationURL = %q, want fallback", finals.RegistrationURL)
	}
	if finals.Gi || !finals.Nogi {
		t.Errorf("flags gi=%v nogi=%v, want gi=false nogi=true", finals.Gi, finals.Nogi)
	}
}

func TestJJWLOneListingFails(t *testing.T) {
	server := jjwlServer(t, respond(jjwlNext), fail)
	defer server.Close()

	a := NewJJWL(Options{})
	a.url = server.URL

	drafts, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v, want partial success", err)
	}
	if len(drafts) != 1 {
		t.Errorf("Fetch() returned %d drafts, want 1", len(drafts))
	}
}

func TestJJWLErrors(t *testing.T) {
	t.Run("both listings fail", func(t *testing.T) {
		server := jjwlServer(t, fail, fail)
		defer server.Close()

		a := NewJJWL(Options{})
		a.url = server.URL

		_, err := a.Fetch(context.Background())
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("Fetch() error = %v, want FetchError", err)
		}
	})

	t.Run("empty listings", func(t *testing.T) {
		server := jjwlServer(t, respond(`[]`), respond(`[]`))
		defer server.Close()

		a := NewJJWL(Options{})
		a.url = server.URL

		_, err := a.Fetch(context.Background())
		if !errors.Is(err, ErrZeroRows) {
			t.Fatalf("Fetch() error = %v, want ErrZeroRows", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		slow := func(w http.ResponseWriter) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`[]`))
		}
		server := jjwlServer(t, slow, slow)
		defer server.Close()

		a := NewJJWL(Options{Timeout: 20 * time.Millisecond})
		a.url = server.URL

		_, err := a.Fetch(context.Background())
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("Fetch() error = %v, want FetchError", err)
		}
	})
}

func TestJJWLLocation(t *testing.T) {
	tests := []struct {
		city, address, want string
	}{
		{"Austin", "100 Main St, Austin, TX, USA", "Austin, TX, USA"},
		{"Austin", "Austin Convention Center", "Austin, Austin Convention Center"},
		{"", "1 Way, Reno, NV", "Reno, NV"},
		{"Miami", "", "Miami"},
		{"", "", "TBD"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := jjwlLocation(tt.city, tt.address); got != tt.want {
				t.Errorf("jjwlLocation(%q, %q) = %q, want %q", tt.city, tt.address, got, tt.want)
			}
		})
	}
}
