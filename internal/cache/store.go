package cache

import (
	"context"
	"sync"
	"time"
)

// Entry is one cached value.
type Entry struct {
	Value                []byte        `json:"value"`
	StoredAt             time.Time     `json:"storedAt"`
	MaxAge               time.Duration `json:"maxAge"`
	StaleWhileRevalidate time.Duration `json:"staleWhileRevalidate,omitempty"`
}

// Fresh reports whether the entry is within its max age.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.StoredAt.Add(e.MaxAge))
}

// Stale reports whether the entry has expired but may still be served
// while it is revalidated.
func (e Entry) Stale(now time.Time) bool {
	return !e.Fresh(now) && now.Before(e.ExpiresAt())
}

// ExpiresAt is the time after which the entry is unusable.
func (e Entry) ExpiresAt() time.Time {
	return e.StoredAt.Add(e.MaxAge + e.StaleWhileRevalidate)
}

// Store is a key to entry store safe for concurrent use. Writes are last
// write wins.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Sweeper is implemented by stores that need expired entries removed
// periodically.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes entries that can no longer be served.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.ExpiresAt()) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
