// Package geocode resolves free-text locations to coordinates.
//
// A Resolver wraps an external Provider with a run-lifetime Cache keyed by
// the lowercased, trimmed text. Failed and empty lookups are cached as nil so
// the provider is asked about a given text at most once per run, and
// concurrent lookups for the same uncached text share one provider call.
// Resolve never returns an error: provider trouble is logged and reported as
// "no coordinates", which never blocks writing the event itself.
package geocode
