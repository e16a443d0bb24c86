package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process stamp store. The read-compare-write for a
// given identity happens under one lock, so concurrent calls for the same
// identity are never both admitted.
type MemoryStore struct {
	mu     sync.Mutex
	stamps map[string]time.Time
}

// NewMemoryStore creates an empty in-memory stamp store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stamps: make(map[string]time.Time)}
}

// TryStamp implements repository.RateLimit.
func (s *MemoryStore) TryStamp(_ context.Context, userID, action string, cooldown time.Duration, now time.Time) (bool, time.Duration, error) {
	key := userID + ":" + action

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.stamps[key]; ok {
		elapsed := now.Sub(last)
		if elapsed < cooldown {
			return false, cooldown - elapsed, nil
		}
	}

	s.stamps[key] = now
	return true, 0, nil
}

// Reset clears the stamp for an identity (admin override).
func (s *MemoryStore) Reset(userID, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stamps, userID+":"+action)
}
