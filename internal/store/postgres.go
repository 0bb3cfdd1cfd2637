package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS response_cache (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS search_cache (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS api_costs (
	day           DATE PRIMARY KEY,
	api_calls     BIGINT NOT NULL DEFAULT 0,
	cost_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	cost_saved_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
	cache_hits    BIGINT NOT NULL DEFAULT 0,
	cache_misses  BIGINT NOT NULL DEFAULT 0,
	cached_tokens BIGINT NOT NULL DEFAULT 0
);
`

// PostgresStore persists caches and cost counters in Postgres
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects, pings and ensures the schema exists
func NewPostgresStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) getCached(ctx context.Context, table, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM `+table+` WHERE key = $1 AND expires_at > now()`,
		key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cache read failed: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) setCached(ctx context.Context, table, key string, value []byte, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+table+` (key, value, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, value, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

// GetResponse returns a cached triage response, or ErrNotFound
func (s *PostgresStore) GetResponse(ctx context.Context, key string) ([]byte, error) {
	return s.getCached(ctx, "response_cache", key)
}

// SetResponse stores a triage response with the given TTL
func (s *PostgresStore) SetResponse(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.setCached(ctx, "response_cache", key, value, ttl)
}

// GetSearch returns cached web-search results, or ErrNotFound
func (s *PostgresStore) GetSearch(ctx context.Context, key string) ([]byte, error) {
	return s.getCached(ctx, "search_cache", key)
}

// SetSearch stores web-search results with the given TTL
func (s *PostgresStore) SetSearch(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.setCached(ctx, "search_cache", key, value, ttl)
}

// CleanupExpired deletes expired rows from both cache tables
func (s *PostgresStore) CleanupExpired(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"response_cache", "search_cache"} {
		tag, err := s.pool.Exec(ctx, `DELETE FROM `+table+` WHERE expires_at <= now()`)
		if err != nil {
			return total, fmt.Errorf("cleanup of %s failed: %w", table, err)
		}
		total += tag.RowsAffected()
	}
	s.logger.Debug("cache cleanup complete", "deleted", total)
	return total, nil
}

// AddCost atomically folds one run's counters into the daily row
func (s *PostgresStore) AddCost(ctx context.Context, day time.Time, delta CostDelta) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_costs (day, api_calls, cost_usd, cost_saved_usd, cache_hits, cache_misses, cached_tokens)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (day) DO UPDATE SET
		   api_calls     = api_costs.api_calls + EXCLUDED.api_calls,
		   cost_usd      = api_costs.cost_usd + EXCLUDED.cost_usd,
		   cost_saved_usd = api_costs.cost_saved_usd + EXCLUDED.cost_saved_usd,
		   cache_hits    = api_costs.cache_hits + EXCLUDED.cache_hits,
		   cache_misses  = api_costs.cache_misses + EXCLUDED.cache_misses,
		   cached_tokens = api_costs.cached_tokens + EXCLUDED.cached_tokens`,
		day.UTC().Truncate(24*time.Hour),
		delta.APICalls, delta.CostUSD, delta.CostSavedUSD,
		delta.CacheHits, delta.CacheMisses, delta.CachedTokens)
	if err != nil {
		return fmt.Errorf("cost update failed: %w", err)
	}
	return nil
}

// DailyCosts returns the per-day counters since the given day, oldest first
func (s *PostgresStore) DailyCosts(ctx context.Context, since time.Time) ([]DailyCost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT day, api_calls, cost_usd, cost_saved_usd, cache_hits, cache_misses, cached_tokens
		 FROM api_costs WHERE day >= $1 ORDER BY day`,
		since.UTC().Truncate(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("cost query failed: %w", err)
	}
	defer rows.Close()

	var costs []DailyCost
	for rows.Next() {
		var c DailyCost
		if err := rows.Scan(&c.Day, &c.APICalls, &c.CostUSD, &c.CostSavedUSD,
			&c.CacheHits, &c.CacheMisses, &c.CachedTokens); err != nil {
			return nil, fmt.Errorf("cost scan failed: %w", err)
		}
		costs = append(costs, c)
	}
	return costs, rows.Err()
}
