package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pathlight-web/pkg/redis"
)

// Entry is a timestamped cached value
type Entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// Fresh reports whether the entry is younger than window at now
func (e Entry) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(e.StoredAt) < window
}

// Cache stores dashboard entries by key. Implementations return
// (Entry{}, false, nil) on a miss; freshness is judged by the reader.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
}

// MemoryCache is a process-local Cache. Entries older than maxAge are
// dropped whenever a new entry is written.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	maxAge  time.Duration
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a memory cache; maxAge <= 0 keeps entries until
// they are deleted
func NewMemoryCache(maxAge time.Duration) *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry), maxAge: maxAge}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(entry.StoredAt)
	c.entries[key] = entry
	return nil
}

// Len reports how many entries are held
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// prune drops entries that are stale as of now. Caller holds mu.
func (c *MemoryCache) prune(now time.Time) {
	if c.maxAge <= 0 {
		return
	}
	for k, e := range c.entries {
		if !e.Fresh(now, c.maxAge) {
			delete(c.entries, k)
		}
	}
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// RedisCache stores entries as JSON in Redis. The Redis TTL only bounds
// memory; Entry.StoredAt is still what readers judge freshness by.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a Redis-backed cache; ttl <= 0 keeps keys forever
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, c.client.KeyBuilder.KeyDashboard(key))
	if errors.Is(err, redis.ErrMiss) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("dashboard cache get: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.Warn("Dashboard cache corrupted, treating as miss", zap.Error(err))
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("dashboard cache encode: %w", err)
	}
	return c.client.Set(ctx, c.client.KeyBuilder.KeyDashboard(key), raw, c.ttl)
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, c.client.KeyBuilder.KeyDashboard(key))
}
