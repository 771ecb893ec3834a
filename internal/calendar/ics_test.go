package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

var stamp = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

func competition() event.Competition {
	end := event.Date(2026, 11, 8)
	return event.Competition{
		ID:              "ibjjf:2026-11-07:pan-no-gi",
		Source:          event.SourceIBJJF,
		Name:            "Pan No-Gi Championship",
		LocationText:    "Kissimmee, FL",
		RegistrationURL: "https://ibjjf.com/events/pan-no-gi",
		StartDate:       event.Date(2026, 11, 7),
		EndDate:         &end,
		Coords:          &event.Coordinates{Lat: 28.2920, Lng: -81.4076},
		Nogi:            true,
	}
}

func TestGenerate(t *testing.T) {
	ics := Generate([]event.Competition{competition()}, "Grappling Events", stamp)

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//grappling-events//grappling-events//EN",
		"X-WR-CALNAME:Grappling Events",
		"BEGIN:VEVENT",
		"UID:ibjjf:2026-11-07:pan-no-gi@grappling-events",
		"DTSTAMP:20261015T080000Z",
		"DTSTART;VALUE=DATE:20261107",
		"DTEND;VALUE=DATE:20261109",
		"SUMMARY:Pan No-Gi Championship",
		"LOCATION:Kissimmee\\, FL",
		"GEO:28.292000;-81.407600",
		"URL:https://ibjjf.com/events/pan-no-gi",
		"CATEGORIES:NOGI",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	for _, field := range requiredFields {
		if !strings.Contains(ics, field+"\r\n") {
			t.Errorf("ICS missing line: %s", field)
		}
	}
}

func TestGenerateSingleDayEvent(t *testing.T) {
	c := competition()
	c.EndDate = nil
	c.Coords = nil
	c.Gi, c.Nogi, c.Kids = true, true, true

	ics := Generate([]event.Competition{c}, "", stamp)

	if !strings.Contains(ics, "DTEND;VALUE=DATE:20261108\r\n") {
		t.Error("single-day event should end the following day")
	}
	if strings.Contains(ics, "GEO:") {
		t.Error("GEO should be omitted without coordinates")
	}
	if strings.Contains(ics, "X-WR-CALNAME:") {
		t.Error("X-WR-CALNAME should be omitted when name is empty")
	}
	if !strings.Contains(ics, "CATEGORIES:GI,NOGI,KIDS\r\n") {
		t.Error("missing categories")
	}
}

func TestGenerateEmpty(t *testing.T) {
	ics := Generate(nil, "", stamp)
	if strings.Count(ics, "BEGIN:VEVENT") != 0 {
		t.Error("empty input should produce no events")
	}
	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Error("empty input should still produce a calendar")
	}
}

func TestGenerateMultiple(t *testing.T) {
	a, b := competition(), competition()
	b.ID = "naga:2026-11-14:dallas"
	ics := Generate([]event.Competition{a, b}, "", stamp)

	if n := strings.Count(ics, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("BEGIN:VEVENT count = %d, want 2", n)
	}
	if !strings.Contains(ics, "UID:naga:2026-11-14:dallas@grappling-events") {
		t.Error("missing second UID")
	}
}

func TestWriteLineFolds(t *testing.T) {
	var b strings.Builder
	line := "SUMMARY:" + strings.Repeat("é", 60)
	writeLine(&b, line)

	out := b.String()
	for _, l := range strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n") {
		if len(l) > maxLineOctets {
			t.Errorf("line has %d octets, want <= %d", len(l), maxLineOctets)
		}
	}
	unfolded := strings.ReplaceAll(strings.TrimSuffix(out, "\r\n"), "\r\n ", "")
	if unfolded != line {
		t.Errorf("unfolded line = %q, want %q", unfolded, line)
	}
}

func TestFormatICSTime(t *testing.T) {
	testTime := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	if got := formatICSTime(testTime); got != "20260315T143000Z" {
		t.Errorf("formatICSTime() = %q, want %q", got, "20260315T143000Z")
	}
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Simple text", "Simple text"},
		{"Text with, comma", "Text with\\, comma"},
		{"Text with; semicolon", "Text with\\; semicolon"},
		{"Text with\\backslash", "Text with\\\\backslash"},
		{"Text with\nnewline", "Text with\\nnewline"},
		{"All, special; chars\\\n", "All\\, special\\; chars\\\\\\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeICS(tt.input)
			if got != tt.expected {
				t.Errorf("escapeICS(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
