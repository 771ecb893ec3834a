// Package scraper fetches competition listings from upstream providers.
//
// Each provider has one Adapter. Adapters hold no persistent state: Fetch
// performs the network calls, parses the response and returns draft events.
// Malformed rows are skipped with a warning. An adapter that parses nothing
// at all returns a ZeroRowsError, which usually means the upstream markup or
// API changed rather than that the calendar is empty.
package scraper
