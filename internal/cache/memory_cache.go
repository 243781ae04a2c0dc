package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryMaxItems bounds the in-memory cache when no size is given
const DefaultMemoryMaxItems = 256

type cacheItem struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// memoryCache is a process-local Cache used when no Valkey server is configured
type memoryCache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	maxItems int
	now      func() time.Time
}

// NewMemoryCache creates an in-memory cache holding at most maxItems keys
func NewMemoryCache(maxItems int) Cache {
	if maxItems <= 0 {
		maxItems = DefaultMemoryMaxItems
	}
	return &memoryCache{
		items:    make(map[string]cacheItem),
		maxItems: maxItems,
		now:      time.Now,
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if item.expired(c.now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := c.items[key]; ok && cur.expired(c.now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return item.data, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok && len(c.items) >= c.maxItems {
		c.evictLocked()
	}

	item := cacheItem{data: append([]byte(nil), value...)}
	if expiration > 0 {
		item.expiresAt = c.now().Add(expiration)
	}
	c.items[key] = item
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	data, err := c.Get(ctx, key)
	return data != nil, err
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	c.items = make(map[string]cacheItem)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Health(ctx context.Context) error {
	return nil
}

// evictLocked drops expired items, or the item closest to expiry if none are expired
func (c *memoryCache) evictLocked() {
	now := c.now()
	victim := ""
	var victimExpiry time.Time
	for k, item := range c.items {
		if item.expired(now) {
			delete(c.items, k)
			continue
		}
		if item.expiresAt.IsZero() {
			continue
		}
		if victim == "" || item.expiresAt.Before(victimExpiry) {
			victim = k
			victimExpiry = item.expiresAt
		}
	}
	if len(c.items) < c.maxItems {
		return
	}
	if victim == "" {
		for k := range c.items {
			victim = k
			break
		}
	}
	delete(c.items, victim)
}
