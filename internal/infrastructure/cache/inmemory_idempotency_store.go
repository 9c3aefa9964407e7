package cache

import (
	"context"
	"sync"
	"time"

	"github.com/retailpos/backend/internal/domain/shared"
)

// sweepEvery is how many claims pass between scans for expired keys
const sweepEvery = 256

// InMemoryIdempotencyStore keeps claims in process memory. Keys are not
// shared between API instances, so it serves single-node deployments and
// tests; with Redis configured the factory returns RedisIdempotencyStore.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	claims  int
	now     func() time.Time
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.claims++
	if s.claims%sweepEvery == 0 {
		s.sweep(now)
	}
	if exp, ok := s.expires[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expires[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expires, key)
	return nil
}

// Close is a no-op; expired keys are swept while claiming
func (s *InMemoryIdempotencyStore) Close() error {
	return nil
}

func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	for key, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, key)
		}
	}
}

// Len returns the number of keys held, live or not yet swept
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
