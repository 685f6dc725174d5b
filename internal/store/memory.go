package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	run     Run
	expires time.Time
}

// MemoryStore keeps runs in process. Expired entries are dropped lazily.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expires time.Time
	if s.ttl > 0 {
		expires = s.now().Add(s.ttl)
	}
	s.runs[run.ID] = memoryEntry{run: run, expires: expires}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Run, error) {
	s.mu.RLock()
	e, ok := s.runs[id]
	s.mu.RUnlock()

	if !ok {
		return Run{}, ErrRunNotFound
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		s.mu.Lock()
		delete(s.runs, id)
		s.mu.Unlock()
		return Run{}, ErrRunNotFound
	}
	return e.run, nil
}
