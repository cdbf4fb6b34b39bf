// Package storage provides journal.Storage backends.
//
// MemoryStorage keeps records in a map and is used by tests and by
// deployments that only want recent history in-process.
//
// SQLiteStorage persists records in a single table. The driver is
// selectable: "sqlite3" (github.com/mattn/go-sqlite3, requires cgo) or
// "sqlite" (modernc.org/sqlite, pure Go, for CGO_ENABLED=0 builds).
package storage
