package history

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return finish(out, q.Limit), nil
}

func (s *MemoryStore) Get(_ context.Context, runID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recs {
		if r.RunID == runID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *MemoryStore) Close() error { return nil }
