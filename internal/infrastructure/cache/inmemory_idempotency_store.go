package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps claims in a process-local map. Claims are
// not shared between instances.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	claims    map[string]time.Time // key -> expiry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its sweeper
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(defaultSweepInterval, time.Now)
}

func newInMemoryIdempotencyStore(sweepEvery time.Duration, now func() time.Time) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		claims:   make(map[string]time.Time),
		now:      now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.sweepLoop(sweepEvery)

	return store
}

// MarkProcessed claims key until ttl elapses
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.claims[key]; ok && now.Before(expiry) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether key holds an unexpired claim
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.claims[key]
	return ok && s.now().Before(expiry), nil
}

// Release drops the claim on key
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop(every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, expiry := range s.claims {
		if !now.Before(expiry) {
			delete(s.claims, key)
		}
	}
}

// Size returns the number of held claims, expired or not
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
