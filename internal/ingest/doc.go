// Package ingest turns adapter output into stored competitions.
//
// Engine handles one adapter's batch: it derives each draft's stable key,
// reuses coordinates already stored for that key, consults the geocoder only
// when none exist, and upserts the record. Pipeline runs every adapter
// concurrently, waits for all of them, and reports a result per source. One
// adapter failing, or even panicking, never affects the others.
package ingest
