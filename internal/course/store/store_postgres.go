package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mobile-gateway/internal/platform/lms"
	"mobile-gateway/pkg/platform/sentinel"
)

// PostgresCache persists enrollment pages across gateway restarts so a
// deploy does not produce a stampede against the platform.
type PostgresCache struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// PostgresOption customizes a PostgresCache.
type PostgresOption func(*PostgresCache)

// WithPostgresClock injects a deterministic clock for tests.
func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(c *PostgresCache) { c.now = now }
}

// NewPostgresCache builds a cache over an existing pool.
func NewPostgresCache(pool *pgxpool.Pool, ttl time.Duration, opts ...PostgresOption) *PostgresCache {
	c := &PostgresCache{pool: pool, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureSchema creates the cache table if it does not exist.
func (c *PostgresCache) EnsureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS enrollment_cache (
			username   TEXT        NOT NULL,
			page       INT         NOT NULL,
			payload    JSONB       NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (username, page)
		)`)
	if err != nil {
		return fmt.Errorf("create enrollment_cache table: %w", err)
	}
	return nil
}

func (c *PostgresCache) Get(ctx context.Context, username string, page int) (*lms.Page, error) {
	var payload []byte
	var fetchedAt time.Time
	err := c.pool.QueryRow(ctx,
		`SELECT payload, fetched_at FROM enrollment_cache WHERE username = $1 AND page = $2`,
		username, page,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read enrollment cache: %w", err)
	}
	if c.now().Sub(fetchedAt) > c.ttl {
		return nil, sentinel.ErrExpired
	}
	var out lms.Page
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode cached enrollment page: %w", err)
	}
	return &out, nil
}

func (c *PostgresCache) Put(ctx context.Context, username string, page int, data *lms.Page) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode enrollment page: %w", err)
	}
	_, err = c.pool.Exec(ctx, `
		INSERT INTO enrollment_cache (username, page, payload, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username, page)
		DO UPDATE SET payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at`,
		username, page, payload, c.now(),
	)
	if err != nil {
		return fmt.Errorf("write enrollment cache: %w", err)
	}
	return nil
}

func (c *PostgresCache) Invalidate(ctx context.Context, username string) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM enrollment_cache WHERE username = $1`, username); err != nil {
		return fmt.Errorf("invalidate enrollment cache: %w", err)
	}
	return nil
}
