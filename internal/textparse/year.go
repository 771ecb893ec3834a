package textparse

import "time"

// InferYear returns the year to use for a month/day that carries no year.
// The candidate date is placed in now's year; if it falls more than
// toleranceDays before now, it is assumed to be next year's occurrence.
func InferYear(month time.Month, day int, now time.Time, toleranceDays int) int {
	year := now.Year()
	candidate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if candidate.Before(today.AddDate(0, 0, -toleranceDays)) {
		return year + 1
	}
	return year
}

// Date builds a UTC calendar date, rejecting days that do not exist in the
// month (time.Date would silently normalize Feb 30 into March).
func Date(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
