package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/scraper"
)

// PersistenceError reports a store failure. It aborts the remaining writes
// of the batch it occurred in.
type PersistenceError struct {
	Source event.Source
	ID     string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persisting %s: %v", e.Source, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered adapter panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorKind classifies a failed source result.
type ErrorKind string

const (
	KindFetch       ErrorKind = "fetch"
	KindParse       ErrorKind = "parse"
	KindZeroRows    ErrorKind = "zero_rows"
	KindPersistence ErrorKind = "persistence"
	KindPanic       ErrorKind = "panic"
	KindUnknown     ErrorKind = "unknown"
)

// Classify maps an adapter or engine error to its kind. nil maps to "".
func Classify(err error) ErrorKind {
	var (
		persistErr *PersistenceError
		panicErr   *PanicError
		parseErr   *scraper.ParseError
		fetchErr   *scraper.FetchError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &panicErr):
		return KindPanic
	case errors.As(err, &persistErr):
		return KindPersistence
	case errors.Is(err, scraper.ErrZeroRows):
		return KindZeroRows
	case errors.As(err, &fetchErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindFetch
	case errors.As(err, &parseErr):
		return KindParse
	default:
		return KindUnknown
	}
}
