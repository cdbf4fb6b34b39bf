// Package journal keeps a history of reconciliation cycles.
//
// Each cycle produces one Record with its outcome, error classification,
// the peers it rendered, BLAKE3 digests of the candidate and previous
// documents, and optionally a zstd-compressed copy of the candidate.
//
// The Recorder attaches to the reconciler as an Observer and writes
// records asynchronously. Backends live in the storage subpackage
// (in-memory and SQLite); age and size limits are enforced by the
// retention subpackage.
//
// The journal is off by default. Enable it with:
//
//	journal:
//	  enabled: true
//	  backend: sqlite
//	  sqlite:
//	    path: data/peersync.db
package journal
