package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goodsdist/backend/internal/domain/shared"
)

const defaultCleanupInterval = 5 * time.Minute

// entry represents a stored payload with expiration
type entry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryReplayStore implements ReplayStore using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryReplayStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryReplayStore creates a new in-memory replay store
// It starts a background goroutine to clean up expired entries
func NewInMemoryReplayStore() *InMemoryReplayStore {
	return newInMemoryReplayStore(defaultCleanupInterval)
}

func newInMemoryReplayStore(cleanupInterval time.Duration) *InMemoryReplayStore {
	store := &InMemoryReplayStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop(cleanupInterval)

	return store
}

// Remember stores payload under key unless a live entry already exists
func (s *InMemoryReplayStore) Remember(ctx context.Context, key string, payload []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[key]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.entries[key] = entry{
		payload:   stored,
		expiresAt: time.Now().Add(ttl),
	}
	return true, nil
}

// Store overwrites the payload under key
func (s *InMemoryReplayStore) Store(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.entries[key] = entry{
		payload:   stored,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Forget removes key
func (s *InMemoryReplayStore) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Recall returns the live payload stored under key
func (s *InMemoryReplayStore) Recall(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}

	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out, true, nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryReplayStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryReplayStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryReplayStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryReplayStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ shared.ReplayStore = (*InMemoryReplayStore)(nil)
