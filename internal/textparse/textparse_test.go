package textparse

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthFromName(t *testing.T) {
	tests := []struct {
		name string
		want time.Month
		ok   bool
	}{
		{"Mar", time.March, true},
		{"march", time.March, true},
		{"SEPT", time.September, true},
		{"Dec.", time.December, true},
		{" May ", time.May, true},
		{"Marchh", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MonthFromName(tt.name)
			if ok != tt.ok || got != tt.want {
				t.Errorf("MonthFromName(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestInferYear(t *testing.T) {
	tests := []struct {
		name      string
		month     time.Month
		day       int
		now       time.Time
		tolerance int
		want      int
	}{
		{"future this year", time.March, 24, day(2026, time.January, 1), 30, 2026},
		{"within tolerance", time.March, 24, day(2026, time.April, 20), 30, 2026},
		{"exactly at tolerance", time.March, 24, day(2026, time.April, 23), 30, 2026},
		{"beyond tolerance rolls over", time.March, 24, day(2026, time.April, 25), 30, 2027},
		{"short tolerance rolls over", time.February, 21, day(2026, time.March, 1), 7, 2027},
		{"short tolerance keeps year", time.February, 21, day(2026, time.February, 25), 7, 2026},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferYear(tt.month, tt.day, tt.now, tt.tolerance); got != tt.want {
				t.Errorf("InferYear() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDate_RejectsImpossibleDays(t *testing.T) {
	if _, ok := Date(2026, time.February, 30); ok {
		t.Error("Date(2026-02-30) should be rejected")
	}
	if _, ok := Date(2026, time.April, 0); ok {
		t.Error("Date(2026-04-00) should be rejected")
	}
	if got, ok := Date(2028, time.February, 29); !ok || got.Day() != 29 {
		t.Errorf("Date(2028-02-29) = %v, %v; want leap day", got, ok)
	}
}

func TestParseCompactRange(t *testing.T) {
	jan1 := day(2026, time.January, 1)

	tests := []struct {
		name      string
		text      string
		fallback  string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantOK    bool
	}{
		{
			name:      "cross-month form with asterisk",
			text:      "Mar 24* - Mar 29",
			fallback:  "Mar",
			now:       jan1,
			wantStart: day(2026, time.March, 24),
			wantEnd:   day(2026, time.March, 29),
			wantOK:    true,
		},
		{
			name:      "rolls over when long past",
			text:      "Mar 24* - Mar 29",
			fallback:  "Mar",
			now:       day(2026, time.May, 1),
			wantStart: day(2027, time.March, 24),
			wantEnd:   day(2027, time.March, 29),
			wantOK:    true,
		},
		{
			name:      "same-month form",
			text:      "Jun 7 - 8",
			now:       jan1,
			wantStart: day(2026, time.June, 7),
			wantEnd:   day(2026, time.June, 8),
			wantOK:    true,
		},
		{
			name:      "single day",
			text:      "Aug 15",
			now:       jan1,
			wantStart: day(2026, time.August, 15),
			wantEnd:   day(2026, time.August, 15),
			wantOK:    true,
		},
		{
			name:      "spans new year",
			text:      "Dec 30 - Jan 2",
			now:       day(2026, time.December, 1),
			wantStart: day(2026, time.December, 30),
			wantEnd:   day(2027, time.January, 2),
			wantOK:    true,
		},
		{
			name:      "fallback month for unknown token",
			text:      "Mrz 10 - 12",
			fallback:  "Mar",
			now:       jan1,
			wantStart: day(2026, time.March, 10),
			wantEnd:   day(2026, time.March, 12),
			wantOK:    true,
		},
		{
			name:   "garbage",
			text:   "TBA",
			now:    jan1,
			wantOK: false,
		},
		{
			name:   "impossible day",
			text:   "Feb 31",
			now:    jan1,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCompactRange(tt.text, tt.fallback, tt.now, 30)
			if ok != tt.wantOK {
				t.Fatalf("ParseCompactRange(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("ParseCompactRange(%q) = %s..%s, want %s..%s", tt.text,
					got.Start.Format("2006-01-02"), got.End.Format("2006-01-02"),
					tt.wantStart.Format("2006-01-02"), tt.wantEnd.Format("2006-01-02"))
			}
		})
	}
}

func TestSliceWindows(t *testing.T) {
	text := "aaaa bbbb cccc"
	got := SliceWindows(text, []int{0, 5, 10}, 3)
	want := []string{"aaaa ", "bbbb ", "ccc"}
	if len(got) != len(want) {
		t.Fatalf("SliceWindows() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window %d = %q, want %q", i, got[i], want[i])
		}
	}

	if got := SliceWindows("short", []int{2}, 300); len(got) != 1 || got[0] != "ort" {
		t.Errorf("SliceWindows() fallback past end = %q, want [\"ort\"]", got)
	}
}

func TestCutAtFirst(t *testing.T) {
	markers := []string{"REGISTER NOW", "BOOK HOTEL"}
	tests := []struct {
		in   string
		want string
	}{
		{"RIO DE JANEIRO, BRAZIL REGISTER NOW", "RIO DE JANEIRO, BRAZIL"},
		{"Austin, TX Book Hotel register now", "Austin, TX"},
		{"No marker here", "No marker here"},
		{"REGISTER NOW", ""},
	}
	for _, tt := range tests {
		if got := CutAtFirst(tt.in, markers); got != tt.want {
			t.Errorf("CutAtFirst(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"South Suburban Sports Complex\t\n\t\n\t\t4810 E County Line Rd., Highlands Ranch, CO, United States", "4810 E County Line Rd., Highlands Ranch, CO, United States"},
		{"  Only Line  ", "Only Line"},
		{"\n\t\n", ""},
	}
	for _, tt := range tests {
		if got := LastLine(tt.in); got != tt.want {
			t.Errorf("LastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinNonEmpty(t *testing.T) {
	if got := JoinNonEmpty(", ", "Irvine", "", " CA ", "United States"); got != "Irvine, CA, United States" {
		t.Errorf("JoinNonEmpty() = %q", got)
	}
}
