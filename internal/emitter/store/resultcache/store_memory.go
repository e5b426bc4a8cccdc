package resultcache

import (
	"context"
	"sync"
	"time"

	"setforge/internal/emitter"
)

type entry struct {
	res     emitter.Result
	expires time.Time
}

// InMemoryStore is the default cache when redis is not configured. Expired
// entries are dropped lazily on access.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Get(_ context.Context, key string) (*emitter.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(e.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	res := e.res
	return &res, true, nil
}

func (s *InMemoryStore) Put(_ context.Context, key string, res *emitter.Result, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{res: *res, expires: s.now().Add(ttl)}
	return nil
}
