// Package cli implements the command-line interface for grappling-events.
//
// The cli package provides the Cobra-based commands that run the ingestion
// pipeline once (run), describe the configured adapters (sources), summarize
// the store (stats) and dump stored competitions as JSON or iCalendar
// (export). It coordinates the config, scraper, geocode, storage and ingest
// packages; scheduling is left to whatever invokes the binary.
package cli
