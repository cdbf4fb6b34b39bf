package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"mercator-hq/peersync/pkg/journal"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSQLite(t *testing.T, driver string) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(&SQLiteConfig{
		Driver:      driver,
		Path:        filepath.Join(t.TempDir(), "journal", "test.db"),
		WALMode:     true,
		BusyTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage(%s) error: %v", driver, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends returns every Storage implementation under test.
func backends(t *testing.T) map[string]journal.Storage {
	return map[string]journal.Storage{
		"memory":         NewMemoryStorage(),
		"sqlite/mattn":   newSQLite(t, DriverMattn),
		"sqlite/modernc": newSQLite(t, DriverModernc),
	}
}

func makeRecord(i int, outcome string) *journal.Record {
	started := baseTime.Add(time.Duration(i) * time.Minute)
	r := &journal.Record{
		ID:              fmt.Sprintf("rec-%03d", i),
		CycleID:         fmt.Sprintf("cycle-%03d", i),
		StartedAt:       started,
		FinishedAt:      started.Add(150 * time.Millisecond),
		Outcome:         outcome,
		Network:         "svc-net",
		SelfName:        "proxy-sidecar",
		Peers:           []string{"api", "worker"},
		CandidateDigest: "aaaa",
		PreviousDigest:  "bbbb",
	}
	if outcome == "failed" {
		r.ErrorKind = "runtime_query"
		r.Error = "docker ps: exit status 1"
		r.Peers = []string{}
	}
	return r
}

func seed(t *testing.T, s journal.Storage, outcomes ...string) {
	t.Helper()
	for i, o := range outcomes {
		if err := s.Store(context.Background(), makeRecord(i, o)); err != nil {
			t.Fatalf("Store() error: %v", err)
		}
	}
}

func TestStorage_StoreAndGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := makeRecord(1, "applied")
			rec.Skipped = []string{"bad host"}
			rec.Document = journal.CompressDocument("server {}")

			if err := s.Store(ctx, rec); err != nil {
				t.Fatalf("Store() error: %v", err)
			}

			got, err := s.Get(ctx, rec.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if !got.StartedAt.Equal(rec.StartedAt) || !got.FinishedAt.Equal(rec.FinishedAt) {
				t.Errorf("timestamps = %v/%v, want %v/%v", got.StartedAt, got.FinishedAt, rec.StartedAt, rec.FinishedAt)
			}
			if got.Outcome != rec.Outcome || got.CycleID != rec.CycleID || got.Network != rec.Network {
				t.Errorf("Get() = %+v, want %+v", got, rec)
			}
			if !reflect.DeepEqual(got.Peers, rec.Peers) {
				t.Errorf("Peers = %v, want %v", got.Peers, rec.Peers)
			}
			if !reflect.DeepEqual(got.Skipped, rec.Skipped) {
				t.Errorf("Skipped = %v, want %v", got.Skipped, rec.Skipped)
			}
			doc, err := journal.DecompressDocument(got.Document)
			if err != nil {
				t.Fatalf("DecompressDocument() error: %v", err)
			}
			if doc != "server {}" {
				t.Errorf("document = %q", doc)
			}

			if _, err := s.Get(ctx, "missing"); !errors.Is(err, journal.ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStorage_Query(t *testing.T) {
	outcomes := []string{"applied", "noop", "noop", "failed", "rolled_back", "noop"}

	tests := []struct {
		name    string
		query   *journal.Query
		wantIDs []string
	}{
		{
			name:    "all newest first",
			query:   &journal.Query{},
			wantIDs: []string{"rec-005", "rec-004", "rec-003", "rec-002", "rec-001", "rec-000"},
		},
		{
			name:    "nil query",
			query:   nil,
			wantIDs: []string{"rec-005", "rec-004", "rec-003", "rec-002", "rec-001", "rec-000"},
		},
		{
			name:    "by outcome",
			query:   &journal.Query{Outcome: "noop"},
			wantIDs: []string{"rec-005", "rec-002", "rec-001"},
		},
		{
			name:    "by error kind",
			query:   &journal.Query{ErrorKind: "runtime_query"},
			wantIDs: []string{"rec-003"},
		},
		{
			name:    "time window inclusive",
			query:   &journal.Query{Since: baseTime.Add(time.Minute), Until: baseTime.Add(3 * time.Minute)},
			wantIDs: []string{"rec-003", "rec-002", "rec-001"},
		},
		{
			name:    "limit and offset",
			query:   &journal.Query{Limit: 2, Offset: 1},
			wantIDs: []string{"rec-004", "rec-003"},
		},
		{
			name:    "offset past end",
			query:   &journal.Query{Offset: 10},
			wantIDs: []string{},
		},
	}

	for name, s := range backends(t) {
		seed(t, s, outcomes...)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				records, err := s.Query(context.Background(), tt.query)
				if err != nil {
					t.Fatalf("Query() error: %v", err)
				}
				ids := make([]string, 0, len(records))
				for _, r := range records {
					ids = append(ids, r.ID)
				}
				if !reflect.DeepEqual(ids, tt.wantIDs) {
					t.Errorf("IDs = %v, want %v", ids, tt.wantIDs)
				}
			})
		}
	}
}

func TestStorage_CountAndDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, s, "applied", "noop", "noop", "failed")

			n, err := s.Count(ctx, &journal.Query{})
			if err != nil || n != 4 {
				t.Fatalf("Count() = %d, %v; want 4", n, err)
			}

			n, err = s.Count(ctx, &journal.Query{Outcome: "noop"})
			if err != nil || n != 2 {
				t.Fatalf("Count(noop) = %d, %v; want 2", n, err)
			}

			deleted, err := s.Delete(ctx, &journal.Query{Until: baseTime.Add(time.Minute)})
			if err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if deleted != 2 {
				t.Errorf("deleted = %d, want 2", deleted)
			}

			n, _ = s.Count(ctx, nil)
			if n != 2 {
				t.Errorf("Count() after delete = %d, want 2", n)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(BackendMemory, nil)
	if err != nil {
		t.Fatalf("Open(memory) error: %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("Open(memory) = %T", s)
	}

	if _, err := Open("postgres", nil); err == nil {
		t.Error("expected error for unsupported backend")
	}

	if _, err := NewSQLiteStorage(&SQLiteConfig{Driver: "pgx", Path: filepath.Join(t.TempDir(), "x.db")}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
