package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps marshalled values so callers get the same copy
// semantics as with Redis.
type MemoryCache struct {
	store  *gocache.Cache
	logger *slog.Logger
}

func NewMemoryCache(defaultTTL time.Duration, logger *slog.Logger) *MemoryCache {
	return &MemoryCache{
		store:  gocache.New(defaultTTL, 2*defaultTTL),
		logger: logger.With("component", "memory_cache"),
	}
}

func (c *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	c.store.Set(key, data, ttl)
	c.logger.Debug("cache set", "key", key, "size_bytes", len(data), "ttl", ttl)
	return nil
}

func (c *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		c.logger.Debug("cache miss", "key", key)
		return false, nil
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return false, fmt.Errorf("json unmarshal: %w", err)
	}
	return true, nil
}

func (c *MemoryCache) Close() error {
	c.store.Flush()
	return nil
}
