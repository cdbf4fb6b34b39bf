package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/peersync/pkg/journal"
)

// Supported database/sql driver names.
const (
	// DriverMattn is github.com/mattn/go-sqlite3 (cgo).
	DriverMattn = "sqlite3"

	// DriverModernc is modernc.org/sqlite (pure Go).
	DriverModernc = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Driver selects the database/sql driver: "sqlite3" or "sqlite".
	// Default: "sqlite3"
	Driver string

	// Path is the database file path. Its directory is created if missing.
	Path string

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:      DriverMattn,
		Path:        "data/peersync.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStorage implements journal.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (and if needed creates) the journal database.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverMattn
	}
	if config.Driver != DriverMattn && config.Driver != DriverModernc {
		return nil, journal.NewStorageError("sqlite", "open",
			fmt.Errorf("unsupported driver %q (must be %q or %q)", config.Driver, DriverMattn, DriverModernc))
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "journal.storage.sqlite")

	if dir := filepath.Dir(config.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, journal.NewStorageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "open", err)
	}

	// A single connection keeps the per-connection pragmas in effect and
	// serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite journal initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return journal.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return journal.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return journal.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return journal.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return journal.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return journal.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists a journal record.
func (s *SQLiteStorage) Store(ctx context.Context, record *journal.Record) error {
	peers, err := json.Marshal(nonNil(record.Peers))
	if err != nil {
		return journal.NewStorageError("sqlite", "store", err)
	}
	skipped, err := json.Marshal(nonNil(record.Skipped))
	if err != nil {
		return journal.NewStorageError("sqlite", "store", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cycles (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.CycleID,
		record.StartedAt.UnixNano(), record.FinishedAt.UnixNano(),
		record.Outcome, nullString(record.ErrorKind), nullString(record.Error),
		record.Network, record.SelfName,
		string(peers), string(skipped),
		record.CandidateDigest, record.PreviousDigest,
		record.Document,
	)
	if err != nil {
		return journal.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.Record, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT " + selectColumns + " FROM cycles"
	if where != "" {
		sqlQuery += " WHERE " + where
	}
	sqlQuery += " ORDER BY started_at DESC, id DESC"

	limit := journal.DefaultQueryLimit
	if query != nil && query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query != nil && query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*journal.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, journal.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, journal.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Get returns the record with the given ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*journal.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM cycles WHERE id = ?", id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, journal.ErrNotFound
		}
		return nil, journal.NewStorageError("sqlite", "get", err)
	}
	return record, nil
}

// Count returns the number of matching records.
func (s *SQLiteStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM cycles"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, journal.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes matching records and returns how many were deleted.
func (s *SQLiteStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	where, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM cycles"
	if where != "" {
		sqlQuery += " WHERE " + where
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return journal.NewStorageError("sqlite", "close", err)
	}
	s.logger.Debug("SQLite journal closed")
	return nil
}

// buildWhereClause returns the WHERE clause (without the keyword) and its
// arguments.
func buildWhereClause(query *journal.Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	if !query.Since.IsZero() {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if !query.Until.IsZero() {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, query.Until.UnixNano())
	}
	if query.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, query.Outcome)
	}
	if query.ErrorKind != "" {
		conditions = append(conditions, "error_kind = ?")
		args = append(args, query.ErrorKind)
	}

	return strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*journal.Record, error) {
	var (
		record                journal.Record
		startedAt, finishedAt int64
		errorKind, errorText  sql.NullString
		network, selfName     sql.NullString
		candidate, previous   sql.NullString
		peers, skipped        sql.NullString
	)

	err := row.Scan(
		&record.ID, &record.CycleID,
		&startedAt, &finishedAt,
		&record.Outcome, &errorKind, &errorText,
		&network, &selfName,
		&peers, &skipped,
		&candidate, &previous,
		&record.Document,
	)
	if err != nil {
		return nil, err
	}

	record.StartedAt = time.Unix(0, startedAt)
	record.FinishedAt = time.Unix(0, finishedAt)
	record.ErrorKind = errorKind.String
	record.Error = errorText.String
	record.Network = network.String
	record.SelfName = selfName.String
	record.CandidateDigest = candidate.String
	record.PreviousDigest = previous.String

	record.Peers = []string{}
	if peers.Valid && peers.String != "" {
		if err := json.Unmarshal([]byte(peers.String), &record.Peers); err != nil {
			return nil, fmt.Errorf("decode peers: %w", err)
		}
	}
	if skipped.Valid && skipped.String != "" && skipped.String != "[]" {
		if err := json.Unmarshal([]byte(skipped.String), &record.Skipped); err != nil {
			return nil, fmt.Errorf("decode skipped: %w", err)
		}
	}

	return &record, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
