package event

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStableKey(t *testing.T) {
	start := Date(2026, time.March, 24)

	tests := []struct {
		name     string
		source   Source
		identity string
		want     string
	}{
		{
			name:     "slug identity",
			source:   SourceIBJJF,
			identity: "pan-championship-2026",
			want:     "ibjjf-pan-championship-2026-2026-03-24",
		},
		{
			name:     "numeric identity",
			source:   SourceJJWL,
			identity: "1234",
			want:     "jjwl-1234-2026-03-24",
		},
		{
			name:     "title with punctuation",
			source:   SourceNAGA,
			identity: "NAGA Dallas Grappling Championship!",
			want:     "naga-naga-dallas-grappling-championship-2026-03-24",
		},
		{
			name:     "diacritics are folded",
			source:   SourceADCC,
			identity: "SÃO PAULO, BRAZIL",
			want:     "adcc-sao-paulo-brazil-2026-03-24",
		},
		{
			name:     "empty identity",
			source:   SourceAGF,
			identity: "  ",
			want:     "agf-event-2026-03-24",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StableKey(tt.source, tt.identity, start)
			if got != tt.want {
				t.Errorf("StableKey() = %q, want %q", got, tt.want)
			}
			if again := StableKey(tt.source, tt.identity, start); again != got {
				t.Errorf("StableKey() not deterministic: %q vs %q", got, again)
			}
		})
	}
}

func TestSlugify_Truncates(t *testing.T) {
	slug := Slugify(strings.Repeat("grappling ", 20))
	if len(slug) > maxSlugLen {
		t.Errorf("Slugify() length = %d, want <= %d", len(slug), maxSlugLen)
	}
	if strings.HasSuffix(slug, "-") {
		t.Errorf("Slugify() = %q, should not end with a hyphen", slug)
	}
}

func TestParseSource(t *testing.T) {
	if s, err := ParseSource(" IBJJF "); err != nil || s != SourceIBJJF {
		t.Errorf("ParseSource(IBJJF) = %q, %v", s, err)
	}
	if _, err := ParseSource("ufc"); err == nil {
		t.Error("ParseSource(ufc) expected error, got nil")
	}
}

func TestDraftQuery(t *testing.T) {
	d := Draft{LocationText: "Irvine, CA"}
	if got := d.Query(); got != "Irvine, CA" {
		t.Errorf("Query() = %q, want location text", got)
	}
	d.GeocodeQuery = "1 Main St, Irvine, CA"
	if got := d.Query(); got != "1 Main St, Irvine, CA" {
		t.Errorf("Query() = %q, want geocode query", got)
	}

	tbd := Draft{LocationText: "TBD"}
	if got := tbd.Query(); got != "" {
		t.Errorf("Query() for placeholder = %q, want empty", got)
	}
}

func TestCompetitionJSON(t *testing.T) {
	end := Date(2026, time.March, 29)
	c, err := FromDraft("ibjjf-pans-2026-03-24", Draft{
		Source:     SourceIBJJF,
		Name:       "Pans",
		StartDate:  Date(2026, time.March, 24),
		EndDate:    &end,
		RawDetails: map[string]any{"eventMonth": "Mar"},
	}, &Coordinates{Lat: 1, Lng: 2})
	if err != nil {
		t.Fatalf("FromDraft() error: %v", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	for _, want := range []string{`"start_date":"2026-03-24"`, `"end_date":"2026-03-29"`, `"eventMonth":"Mar"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("JSON %s should contain %s", data, want)
		}
	}

	var back Competition
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !back.StartDate.Equal(c.StartDate) || back.EndDate == nil || !back.EndDate.Equal(end) {
		t.Errorf("dates did not survive encoding: %v %v", back.StartDate, back.EndDate)
	}
	if back.Coords == nil || back.Coords.Lat != 1 || back.Coords.Lng != 2 {
		t.Errorf("Coords = %+v, want {1 2}", back.Coords)
	}
}
