// Package sqlite persists snapshots in a single SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Each snapshot is one row of the snapshots table keyed by
// name, holding the JSON encoding of the table. Save replaces the row inside
// a transaction, so a failed write leaves the previous snapshot intact.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// # Data Location
//
// The database is stored at <data-dir>/chapterdex.db.
package sqlite
