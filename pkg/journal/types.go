package journal

import (
	"context"
	"time"
)

// Record is the persisted history entry for one reconciliation cycle.
type Record struct {
	// ID uniquely identifies the record (UUID v4).
	ID string `json:"id"`

	// CycleID is the reconciliation cycle the record describes.
	CycleID string `json:"cycle_id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Outcome is one of noop, applied, rolled_back, failed.
	Outcome string `json:"outcome"`

	// ErrorKind classifies Error; empty when the cycle had no error.
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	Network  string   `json:"network,omitempty"`
	SelfName string   `json:"self_name,omitempty"`
	Peers    []string `json:"peers"`
	Skipped  []string `json:"skipped,omitempty"`

	// CandidateDigest and PreviousDigest are BLAKE3 fingerprints of the
	// generated and the previously live document.
	CandidateDigest string `json:"candidate_digest,omitempty"`
	PreviousDigest  string `json:"previous_digest,omitempty"`

	// Document is the zstd-compressed candidate document. Empty when
	// snapshots are disabled or generation did not run.
	Document []byte `json:"-"`
}

// Duration returns how long the cycle took.
func (r *Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasDocument reports whether a document snapshot was stored.
func (r *Record) HasDocument() bool {
	return len(r.Document) > 0
}

// Query filters journal records. Zero values mean "no filter".
type Query struct {
	// Since and Until bound StartedAt, both inclusive.
	Since time.Time
	Until time.Time

	Outcome   string
	ErrorKind string

	// Limit caps the number of results (default 100). Ignored by Delete and
	// Count.
	Limit  int
	Offset int
}

// DefaultQueryLimit is applied when Query.Limit is zero.
const DefaultQueryLimit = 100

// Storage persists journal records.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query returns matching records, newest first.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Count returns the number of matching records.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching records and returns how many were deleted.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
