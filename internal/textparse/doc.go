// Package textparse holds the stateless date and location text helpers shared
// by every source adapter: month-name lookup, year inference against a
// reference time, compact date-range parsing and text-window slicing.
//
// Nothing here reads the clock. Callers pass the reference "now" explicitly so
// results are deterministic under test.
package textparse
