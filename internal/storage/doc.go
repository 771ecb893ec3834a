// Package storage persists canonical competitions.
//
// Three backends implement Store: SQLite (the default, one file under the
// data directory), PostgreSQL, and a JSON snapshot file for small setups and
// debugging. All of them upsert atomically per id and never replace known
// coordinates with null.
package storage
