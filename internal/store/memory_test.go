package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ResponseCache(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetResponse(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetResponse(ctx, "k1", []byte(`{"kind":"INVALID"}`), time.Hour))

	got, err := s.GetResponse(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"kind":"INVALID"}`), got)

	// Last write wins
	require.NoError(t, s.SetResponse(ctx, "k1", []byte(`{"kind":"NEEDS_INFO"}`), time.Hour))
	got, err = s.GetResponse(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"kind":"NEEDS_INFO"}`), got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	require.NoError(t, s.SetSearch(ctx, "k", []byte("v"), 24*time.Hour))

	_, err := s.GetSearch(ctx, "k")
	require.NoError(t, err)

	// Just past the TTL the entry is gone
	current = current.Add(24*time.Hour + time.Second)
	_, err = s.GetSearch(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CleanupExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	require.NoError(t, s.SetResponse(ctx, "old", []byte("v"), time.Minute))
	require.NoError(t, s.SetSearch(ctx, "old", []byte("v"), time.Minute))
	require.NoError(t, s.SetResponse(ctx, "fresh", []byte("v"), time.Hour))

	current = current.Add(30 * time.Minute)
	deleted, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, err = s.GetResponse(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryStore_AddCostAccumulates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	day := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, s.AddCost(ctx, day, CostDelta{APICalls: 1, CostUSD: 0.012, CacheMisses: 1, CachedTokens: 800}))
	// Same calendar day at a different hour lands on the same row
	require.NoError(t, s.AddCost(ctx, day.Add(5*time.Hour), CostDelta{CostSavedUSD: 0.015, CacheHits: 1}))
	require.NoError(t, s.AddCost(ctx, day.AddDate(0, 0, 1), CostDelta{APICalls: 1, CostUSD: 0.01, CacheMisses: 1}))

	costs, err := s.DailyCosts(ctx, day)
	require.NoError(t, err)
	require.Len(t, costs, 2)

	first := costs[0]
	assert.Equal(t, 1, first.APICalls)
	assert.InDelta(t, 0.012, first.CostUSD, 1e-9)
	assert.InDelta(t, 0.015, first.CostSavedUSD, 1e-9)
	assert.Equal(t, 1, first.CacheHits)
	assert.Equal(t, 1, first.CacheMisses)
	assert.Equal(t, int64(800), first.CachedTokens)

	assert.True(t, costs[0].Day.Before(costs[1].Day))
}

func TestMemoryStore_DailyCostsSinceFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	day1 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddCost(ctx, day1, CostDelta{APICalls: 1}))
	require.NoError(t, s.AddCost(ctx, day2, CostDelta{APICalls: 1}))

	costs, err := s.DailyCosts(ctx, day2)
	require.NoError(t, err)
	require.Len(t, costs, 1)
	assert.Equal(t, day2, costs[0].Day)
}
