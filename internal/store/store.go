package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a cache key is absent or expired
var ErrNotFound = errors.New("store: not found")

// CacheStore holds triage responses and web-search results keyed by
// content hash. Values are opaque JSON; expiry is enforced on read.
type CacheStore interface {
	GetResponse(ctx context.Context, key string) ([]byte, error)
	SetResponse(ctx context.Context, key string, value []byte, ttl time.Duration) error

	GetSearch(ctx context.Context, key string) ([]byte, error)
	SetSearch(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// CleanupExpired removes rows past their expiry and reports how
	// many were deleted.
	CleanupExpired(ctx context.Context) (int64, error)
}

// CostDelta is one triage run's contribution to the daily counters
type CostDelta struct {
	APICalls     int
	CostUSD      float64
	CostSavedUSD float64
	CacheHits    int
	CacheMisses  int
	CachedTokens int64
}

// DailyCost is one day's accumulated counters
type DailyCost struct {
	Day          time.Time
	APICalls     int
	CostUSD      float64
	CostSavedUSD float64
	CacheHits    int
	CacheMisses  int
	CachedTokens int64
}

// CostStore accumulates per-day API spend and savings
type CostStore interface {
	AddCost(ctx context.Context, day time.Time, delta CostDelta) error
	DailyCosts(ctx context.Context, since time.Time) ([]DailyCost, error)
}

// Store combines the cache and cost stores; both backends implement it
type Store interface {
	CacheStore
	CostStore
	Close()
}
