package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mobile-gateway/internal/platform/lms"
	"mobile-gateway/pkg/platform/sentinel"
)

type memoryEntry struct {
	page      *lms.Page
	fetchedAt time.Time
}

// InMemoryCache is the development and test cache.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption customizes an InMemoryCache.
type MemoryOption func(*InMemoryCache)

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *InMemoryCache) { c.now = now }
}

// NewInMemoryCache builds a cache whose entries expire after ttl.
func NewInMemoryCache(ttl time.Duration, opts ...MemoryOption) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(username string, page int) string {
	return fmt.Sprintf("%s#%d", username, page)
}

func (c *InMemoryCache) Get(_ context.Context, username string, page int) (*lms.Page, error) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey(username, page)]
	c.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, sentinel.ErrExpired
	}
	return entry.page, nil
}

func (c *InMemoryCache) Put(_ context.Context, username string, page int, data *lms.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(username, page)] = memoryEntry{page: data, fetchedAt: c.now()}
	return nil
}

func (c *InMemoryCache) Invalidate(_ context.Context, username string) error {
	prefix := username + "#"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	return nil
}
