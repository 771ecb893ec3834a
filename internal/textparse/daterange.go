package textparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Compact range shapes, most specific first.
var (
	crossMonthRange = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2})\s*[-–]\s*([A-Za-z]+)\.?\s+(\d{1,2})$`)
	sameMonthRange  = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2})\s*[-–]\s*(\d{1,2})$`)
	singleDay       = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2})$`)
)

// Range is a parsed start/end calendar interval.
type Range struct {
	Start time.Time
	End   time.Time
}

// ParseCompactRange parses human-written intervals like "Mar 24* - Mar 29",
// "Mar 24 - 29" or "Mar 24". Asterisks are stripped first. fallbackMonth is
// used when the month token is not recognized. The year is inferred from now
// with the given tolerance; a range whose end month precedes its start month
// ends in the following year.
func ParseCompactRange(text, fallbackMonth string, now time.Time, toleranceDays int) (Range, bool) {
	clean := CollapseSpace(strings.ReplaceAll(text, "*", ""))

	month := func(name string) (time.Month, bool) {
		if m, ok := MonthFromName(name); ok {
			return m, true
		}
		return MonthFromName(fallbackMonth)
	}

	var (
		startMonth, endMonth time.Month
		startDay, endDay     int
		ok                   bool
	)

	switch {
	case crossMonthRange.MatchString(clean):
		m := crossMonthRange.FindStringSubmatch(clean)
		if startMonth, ok = month(m[1]); !ok {
			return Range{}, false
		}
		startDay, _ = strconv.Atoi(m[2])
		if endMonth, ok = MonthFromName(m[3]); !ok {
			endMonth = startMonth
		}
		endDay, _ = strconv.Atoi(m[4])
	case sameMonthRange.MatchString(clean):
		m := sameMonthRange.FindStringSubmatch(clean)
		if startMonth, ok = month(m[1]); !ok {
			return Range{}, false
		}
		startDay, _ = strconv.Atoi(m[2])
		endMonth = startMonth
		endDay, _ = strconv.Atoi(m[3])
	case singleDay.MatchString(clean):
		m := singleDay.FindStringSubmatch(clean)
		if startMonth, ok = month(m[1]); !ok {
			return Range{}, false
		}
		startDay, _ = strconv.Atoi(m[2])
		endMonth, endDay = startMonth, startDay
	default:
		return Range{}, false
	}

	year := InferYear(startMonth, startDay, now, toleranceDays)
	start, ok := Date(year, startMonth, startDay)
	if !ok {
		return Range{}, false
	}

	endYear := year
	if endMonth < startMonth {
		endYear++
	}
	end, ok := Date(endYear, endMonth, endDay)
	if !ok || end.Before(start) {
		return Range{}, false
	}

	return Range{Start: start, End: end}, true
}
