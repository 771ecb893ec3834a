package scraper

import (
	"errors"
	"fmt"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

// ErrZeroRows matches any ZeroRowsError with errors.Is.
var ErrZeroRows = errors.New("zero rows parsed")

// FetchError reports a network failure, timeout or non-success status.
type FetchError struct {
	Source event.Source
	URL    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetching %s: %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports an upstream response that could not be decoded at all.
type ParseError struct {
	Source event.Source
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parsing response: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ZeroRowsError reports that upstream answered but no row survived parsing.
// Seen is the number of candidate records found before validation.
type ZeroRowsError struct {
	Source event.Source
	Seen   int
}

func (e *ZeroRowsError) Error() string {
	return fmt.Sprintf("%s: zero rows parsed from %d upstream records, format may have changed", e.Source, e.Seen)
}

func (e *ZeroRowsError) Is(target error) bool {
	return target == ErrZeroRows
}
