package astar

import (
	"fmt"
	"sync"
)

// CacheKey identifies a search. Endpoints are stored after clamping.
type CacheKey struct {
	Start     Point
	End       Point
	Heuristic Heuristic
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%d:%d,%d,%d:%d,%d,%d", int(k.Heuristic),
		k.Start.Row, k.Start.Col, k.Start.Layer,
		k.End.Row, k.End.Col, k.End.Layer)
}

// Cache stores paths found by an engine. It trades memory for repeated
// query speed; it is not a correctness mechanism and knows nothing about the
// grid, so a cache must only ever serve engines with one Fingerprint.
type Cache interface {
	Get(key CacheKey) (Path, bool)
	Put(key CacheKey, path Path)
}

// MemoryCache is an unbounded in-process Cache, safe for concurrent use.
// The zero value is an empty cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[CacheKey]Path
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[CacheKey]Path)}
}

func (c *MemoryCache) Get(key CacheKey) (Path, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	path, ok := c.entries[key]
	return path, ok
}

func (c *MemoryCache) Put(key CacheKey, path Path) {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[CacheKey]Path)
	}
	c.entries[key] = path
	c.mu.Unlock()
}

// Len is the number of cached paths.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
