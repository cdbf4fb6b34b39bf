package storage

import (
	"fmt"

	"mercator-hq/peersync/pkg/journal"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open returns the backend named by backend. sqlite is only used for the
// SQLite backend and may be nil for defaults.
func Open(backend string, sqlite *SQLiteConfig) (journal.Storage, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendSQLite, "":
		return NewSQLiteStorage(sqlite)
	default:
		return nil, journal.NewStorageError(backend, "open", fmt.Errorf("unsupported journal backend %q", backend))
	}
}
