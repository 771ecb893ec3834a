// Package calendar renders stored competitions as iCalendar (RFC 5545).
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

const (
	prodID    = "-//grappling-events//grappling-events//EN"
	uidDomain = "grappling-events"
	// maxLineOctets is the RFC 5545 content line limit before folding.
	maxLineOctets = 75
)

// Generate renders comps as one VCALENDAR of all-day events. stamp is used
// for every DTSTAMP. An empty name omits X-WR-CALNAME.
func Generate(comps []event.Competition, name string, stamp time.Time) string {
	var ics strings.Builder

	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:"+prodID)
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")
	if name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(name))
	}

	for _, c := range comps {
		writeEvent(&ics, c, stamp)
	}

	writeLine(&ics, "END:VCALENDAR")
	return ics.String()
}

func writeEvent(ics *strings.Builder, c event.Competition, stamp time.Time) {
	writeLine(ics, "BEGIN:VEVENT")
	writeLine(ics, fmt.Sprintf("UID:%s@%s", c.ID, uidDomain))
	writeLine(ics, "DTSTAMP:"+formatICSTime(stamp))

	// DTEND is exclusive for all-day events.
	end := c.StartDate
	if c.EndDate != nil && c.EndDate.After(end) {
		end = *c.EndDate
	}
	writeLine(ics, "DTSTART;VALUE=DATE:"+formatICSDate(c.StartDate))
	writeLine(ics, "DTEND;VALUE=DATE:"+formatICSDate(end.AddDate(0, 0, 1)))

	writeLine(ics, "SUMMARY:"+escapeICS(c.Name))
	if c.LocationText != "" {
		writeLine(ics, "LOCATION:"+escapeICS(c.LocationText))
	}
	if c.Coords != nil {
		writeLine(ics, fmt.Sprintf("GEO:%.6f;%.6f", c.Coords.Lat, c.Coords.Lng))
	}
	if c.RegistrationURL != "" {
		writeLine(ics, "URL:"+c.RegistrationURL)
	}
	writeLine(ics, "DESCRIPTION:"+escapeICS(description(c)))
	if cats := categories(c); len(cats) > 0 {
		writeLine(ics, "CATEGORIES:"+strings.Join(cats, ","))
	}
	writeLine(ics, "STATUS:CONFIRMED")
	writeLine(ics, "TRANSP:TRANSPARENT")
	writeLine(ics, "END:VEVENT")
}

func description(c event.Competition) string {
	parts := []string{"Source: " + strings.ToUpper(string(c.Source))}
	if c.RegistrationURL != "" {
		parts = append(parts, "Register at: "+c.RegistrationURL)
	}
	return strings.Join(parts, "\n")
}

func categories(c event.Competition) []string {
	var cats []string
	if c.Gi {
		cats = append(cats, "GI")
	}
	if c.Nogi {
		cats = append(cats, "NOGI")
	}
	if c.Kids {
		cats = append(cats, "KIDS")
	}
	return cats
}

// writeLine appends a CRLF-terminated content line, folding it at the
// octet limit without splitting a UTF-8 sequence.
func writeLine(b *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// Continuation lines spend one octet on the leading space.
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
