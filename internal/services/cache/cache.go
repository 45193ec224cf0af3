// Package cache holds short-lived rendered responses of the corpus API.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL applies when Set is given a non-positive ttl
const DefaultTTL = 30 * time.Second

// Cache stores byte values under string keys until they expire
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Stats counts cache activity
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
	Size      int64 // bytes held
	MaxSize   int64
}

// MemoryCache is a size-bounded in-process Cache. When full, expired items go
// first, then the items closest to expiry.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]item
	maxSize int64
	stats   Stats
	now     func() time.Time
}

type item struct {
	value  []byte
	expiry time.Time
}

func (i item) size(key string) int64 { return int64(len(key) + len(i.value)) }

// NewMemoryCache creates a cache holding at most maxBytes of keys and values.
// maxBytes <= 0 means unbounded.
func NewMemoryCache(maxBytes int64) *MemoryCache {
	return &MemoryCache{
		items:   make(map[string]item),
		maxSize: maxBytes,
		now:     time.Now,
	}
}

// Get implements Cache
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if ok && c.now().After(it.expiry) {
		c.remove(key, it)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return it.value, true
}

// Set implements Cache. Values larger than the whole cache are not stored.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	it := item{value: value, expiry: c.now().Add(ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.items[key]; ok {
		c.stats.Size -= old.size(key)
		delete(c.items, key)
	}
	if c.maxSize > 0 && it.size(key) > c.maxSize {
		return nil
	}
	c.makeRoom(it.size(key))
	c.items[key] = it
	c.stats.Size += it.size(key)
	c.stats.Sets++
	return nil
}

// Delete implements Cache
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if it, ok := c.items[key]; ok {
		delete(c.items, key)
		c.stats.Size -= it.size(key)
	}
	return nil
}

// Clear implements Cache
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
	c.stats.Size = 0
	return nil
}

// Stats returns a snapshot of the counters
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.MaxSize = c.maxSize
	return s
}

func (c *MemoryCache) remove(key string, it item) {
	delete(c.items, key)
	c.stats.Size -= it.size(key)
	c.stats.Evictions++
}

// makeRoom evicts until need more bytes fit. Callers hold mu.
func (c *MemoryCache) makeRoom(need int64) {
	if c.maxSize <= 0 || c.stats.Size+need <= c.maxSize {
		return
	}
	now := c.now()
	for key, it := range c.items {
		if now.After(it.expiry) {
			c.remove(key, it)
		}
	}
	for c.stats.Size+need > c.maxSize && len(c.items) > 0 {
		var (
			oldestKey string
			oldest    item
			found     bool
		)
		for key, it := range c.items {
			if !found || it.expiry.Before(oldest.expiry) {
				oldestKey, oldest, found = key, it, true
			}
		}
		c.remove(oldestKey, oldest)
	}
}
