// Package cache provides a string key/value store with per-entry TTL, backed
// by Redis in production and by an in-process map when Redis is not
// configured.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache: key not found")

// Store is the cache contract consumed by the services
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
