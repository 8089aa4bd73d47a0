package cache

import (
	"context"
	"sync"
)

// MemoryCache keeps entries in a concurrent map for the life of the process.
type MemoryCache struct {
	entries sync.Map // string -> []byte
}

// processMemory is the map shared by every caller of NewMemoryCache.
var processMemory = &MemoryCache{}

// NewMemoryCache returns the process-wide memory cache. Every client built
// with it reads and writes the same entries.
func NewMemoryCache() Cache {
	return processMemory
}

// Get returns a copy of the stored value.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	return clone(v.([]byte)), true, nil
}

// Set stores a copy of data, so later changes to the caller's slice are not visible.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte) error {
	c.entries.Store(key, clone(data))
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Delete(key)
	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
	return nil
}

// Len reports the number of stored entries.
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close does nothing; the entries outlive any single user of the cache.
func (c *MemoryCache) Close() error {
	return nil
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
