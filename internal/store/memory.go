package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used when no database is
// configured. Caches and counters vanish when the process exits.
type MemoryStore struct {
	mu        sync.Mutex
	responses map[string]memoryEntry
	searches  map[string]memoryEntry
	costs     map[time.Time]DailyCost

	now func() time.Time // test hook
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		responses: make(map[string]memoryEntry),
		searches:  make(map[string]memoryEntry),
		costs:     make(map[time.Time]DailyCost),
		now:       time.Now,
	}
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() {}

func (s *MemoryStore) get(m map[string]memoryEntry, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := m[key]
	if !ok {
		return nil, ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(m, key)
		return nil, ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) set(m map[string]memoryEntry, key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
}

// GetResponse returns a cached triage response, or ErrNotFound
func (s *MemoryStore) GetResponse(ctx context.Context, key string) ([]byte, error) {
	return s.get(s.responses, key)
}

// SetResponse stores a triage response with the given TTL
func (s *MemoryStore) SetResponse(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.set(s.responses, key, value, ttl)
	return nil
}

// GetSearch returns cached web-search results, or ErrNotFound
func (s *MemoryStore) GetSearch(ctx context.Context, key string) ([]byte, error) {
	return s.get(s.searches, key)
}

// SetSearch stores web-search results with the given TTL
func (s *MemoryStore) SetSearch(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.set(s.searches, key, value, ttl)
	return nil
}

// CleanupExpired removes expired entries from both caches
func (s *MemoryStore) CleanupExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	now := s.now()
	for _, m := range []map[string]memoryEntry{s.responses, s.searches} {
		for key, entry := range m {
			if now.After(entry.expiresAt) {
				delete(m, key)
				deleted++
			}
		}
	}
	return deleted, nil
}

// AddCost folds one run's counters into the daily row
func (s *MemoryStore) AddCost(ctx context.Context, day time.Time, delta CostDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := day.UTC().Truncate(24 * time.Hour)
	c := s.costs[key]
	c.Day = key
	c.APICalls += delta.APICalls
	c.CostUSD += delta.CostUSD
	c.CostSavedUSD += delta.CostSavedUSD
	c.CacheHits += delta.CacheHits
	c.CacheMisses += delta.CacheMisses
	c.CachedTokens += delta.CachedTokens
	s.costs[key] = c
	return nil
}

// DailyCosts returns the per-day counters since the given day, oldest first
func (s *MemoryStore) DailyCosts(ctx context.Context, since time.Time) ([]DailyCost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := since.UTC().Truncate(24 * time.Hour)
	var costs []DailyCost
	for day, c := range s.costs {
		if !day.Before(cutoff) {
			costs = append(costs, c)
		}
	}
	// Oldest first
	for i := 1; i < len(costs); i++ {
		for j := i; j > 0 && costs[j].Day.Before(costs[j-1].Day); j-- {
			costs[j], costs[j-1] = costs[j-1], costs[j]
		}
	}
	return costs, nil
}
