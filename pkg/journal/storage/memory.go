package storage

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/peersync/pkg/journal"
)

// MemoryStorage implements journal.Storage with an in-memory map. History
// is lost on restart.
type MemoryStorage struct {
	records map[string]*journal.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*journal.Record),
	}
}

// Store persists a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *journal.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStorage) Query(ctx context.Context, query *journal.Query) ([]*journal.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filter(query)
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StartedAt.Equal(matched[j].StartedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	limit := journal.DefaultQueryLimit
	if query != nil && query.Limit > 0 {
		limit = query.Limit
	}
	offset := 0
	if query != nil && query.Offset > 0 {
		offset = query.Offset
	}

	if offset >= len(matched) {
		return []*journal.Record{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*journal.Record, 0, end-offset)
	for _, r := range matched[offset:end] {
		recordCopy := *r
		out = append(out, &recordCopy)
	}
	return out, nil
}

// Get returns the record with the given ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*journal.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, journal.ErrNotFound
	}
	recordCopy := *r
	return &recordCopy, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filter(query))), nil
}

// Delete removes matching records.
func (s *MemoryStorage) Delete(ctx context.Context, query *journal.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filter(query)
	for _, r := range matched {
		delete(s.records, r.ID)
	}
	return int64(len(matched)), nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

// filter must be called with s.mu held.
func (s *MemoryStorage) filter(query *journal.Query) []*journal.Record {
	var out []*journal.Record
	for _, r := range s.records {
		if matches(r, query) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r *journal.Record, q *journal.Query) bool {
	if q == nil {
		return true
	}
	if !q.Since.IsZero() && r.StartedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && r.StartedAt.After(q.Until) {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if q.ErrorKind != "" && r.ErrorKind != q.ErrorKind {
		return false
	}
	return true
}
