// Package event provides the canonical types for grappling competitions.
//
// Adapters produce Draft values; the ingest engine turns each Draft into a
// Competition keyed by a deterministic stable key derived from the source,
// the upstream identity and the ISO start date. The same physical event
// always maps to the same key across runs, which is what makes repeated
// ingestion converge instead of duplicating rows.
package event
