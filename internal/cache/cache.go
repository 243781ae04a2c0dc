package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache defines the interface for caching operations.
// Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
	Health(ctx context.Context) error
}

// CacheError represents a cache operation error
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s failed for key '%s': %v", e.Operation, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

const keyPrefix = "hitcapsule"

// ChartKey returns the cache key for a chart date
func ChartKey(date string) string {
	return Key("chart", date)
}

// Key joins parts under the application prefix
func Key(parts ...string) string {
	return keyPrefix + ":" + strings.Join(parts, ":")
}

// New returns a Valkey cache when valkeyURL is set and an in-memory cache otherwise
func New(valkeyURL string, memoryMaxItems int) (Cache, error) {
	if valkeyURL == "" {
		return NewMemoryCache(memoryMaxItems), nil
	}
	return NewValkeyCache(valkeyURL)
}
