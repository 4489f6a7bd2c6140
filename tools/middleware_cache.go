package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// Cache defaults.
const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultCacheEntries = 1000
)

// Cache is the interface for caching tool results.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// CacheKeyFunc generates a cache key from tool name and arguments.
type CacheKeyFunc func(toolName string, args json.RawMessage) string

// DefaultCacheKey hashes the tool name with the canonical form of args, so
// arguments differing only in key order or whitespace share an entry.
func DefaultCacheKey(toolName string, args json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(toolName))
	h.Write([]byte{0})
	h.Write(canonicalJSON(args))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON re-encodes args with sorted object keys. Invalid JSON is
// returned unchanged.
func canonicalJSON(args json.RawMessage) []byte {
	if len(args) == 0 {
		return []byte("{}")
	}
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return args
	}
	out, err := json.Marshal(v)
	if err != nil {
		return args
	}
	return out
}

// WithCache creates middleware that caches successful tool results.
func WithCache(cache Cache, ttl time.Duration) Middleware {
	return WithCacheCustomKey(cache, ttl, DefaultCacheKey)
}

// WithCacheCustomKey creates caching middleware with a custom key function.
func WithCacheCustomKey(cache Cache, ttl time.Duration, keyFunc CacheKeyFunc) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			toolName := ""
			if tc := ToolContextFromContext(ctx); tc != nil {
				toolName = tc.ToolName
			}

			key := keyFunc(toolName, args)
			if cached, ok := cache.Get(key); ok {
				return cached, nil
			}

			result, err := next(ctx, args)
			if err != nil {
				return nil, err
			}

			cache.Set(key, result, ttl)
			return result, nil
		}
	}
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// MemoryCache is an in-memory Cache with per-entry expiry and
// least-recently-used eviction. It is safe for concurrent use.
type MemoryCache struct {
	mu     sync.Mutex
	lru    *lru.Cache
	hits   uint64
	misses uint64
	now    func() time.Time
}

type cacheItem struct {
	value   any
	expires time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries results.
// A non-positive maxEntries selects DefaultCacheEntries.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &MemoryCache{lru: lru.New(maxEntries), now: time.Now}
}

// Get returns a live entry and marks it recently used.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return nil, false
	}
	item := v.(cacheItem)
	if c.now().After(item.expires) {
		c.lru.Remove(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return item.value, true
}

// Set stores value for ttl. A non-positive ttl selects DefaultCacheTTL.
func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, cacheItem{value: value, expires: c.now().Add(ttl)})
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
}

// Stats returns a snapshot of the counters.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: c.lru.Len(), Hits: c.hits, Misses: c.misses}
}
