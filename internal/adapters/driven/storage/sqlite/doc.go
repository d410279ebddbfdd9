// Package sqlite provides a SQLite-backed conversation store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Messages carry an autoincrement sequence that fixes their chronological order
// even when two appends share a timestamp.
//
// # Data Location
//
// By default, the database is stored at ~/.ragchat/data/conversations.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
