package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the journal tables. Timestamps are stored as Unix
// nanoseconds so both SQLite drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS cycles (
    id TEXT PRIMARY KEY,
    cycle_id TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    error_kind TEXT,
    error TEXT,
    network TEXT,
    self_name TEXT,
    peers TEXT NOT NULL,
    skipped TEXT,
    candidate_digest TEXT,
    previous_digest TEXT,
    document BLOB
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
CREATE INDEX IF NOT EXISTS idx_cycles_outcome ON cycles(outcome);
CREATE INDEX IF NOT EXISTS idx_cycles_cycle_id ON cycles(cycle_id);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, cycle_id, started_at, finished_at, outcome, error_kind, error,
    network, self_name, peers, skipped, candidate_digest, previous_digest, document`
