package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryStore is a process-local Locker and SummaryCache. Locks are not
// shared between instances, so it suits single-instance deployments and tests.
type InMemoryStore struct {
	mu        sync.Mutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryStore creates a store and starts a background goroutine that
// drops expired entries every cleanupInterval. A zero interval disables it.
func NewInMemoryStore(cleanupInterval time.Duration) *InMemoryStore {
	s := &InMemoryStore{
		entries:  make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		s.wg.Add(1)
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

// Acquire takes key for ttl unless a live entry holds it
func (s *InMemoryStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries["lock:"+key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries["lock:"+key] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Get decodes a live cached value into dest
func (s *InMemoryStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries["cache:"+key]
	s.mu.Unlock()

	if !ok || !s.now().Before(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value as JSON for ttl
func (s *InMemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries["cache:"+key] = entry{value: raw, expiresAt: s.now().Add(ttl)}
	return nil
}

// Len returns the number of stored entries, expired ones included
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine
func (s *InMemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopChan:
			return
		}
	}
}

func (s *InMemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
