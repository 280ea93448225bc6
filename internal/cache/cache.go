// Package cache stores query results as JSON, in process or in Redis.
package cache

import (
	"context"
	"time"
)

// Cache is a JSON result cache. GetJSON reports false on a miss.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Close() error
}
