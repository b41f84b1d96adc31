// Package cache provides a bounded in-memory cache for backend results.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leefowlercu/chunkalyze/internal/metrics"
)

// ErrCacheMiss is returned when an entry is not found in the cache.
var ErrCacheMiss = errors.New("cache miss")

// DefaultSize is the entry count used when a non-positive size is given.
const DefaultSize = 1024

// ResultCache is a fixed-size LRU cache keyed by content hash.
type ResultCache[V any] struct {
	name  string
	items *lru.Cache[string, V]
}

// New creates a cache holding at most size entries. The name labels the
// cache in metrics.
func New[V any](name string, size int) (*ResultCache[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	items, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache[V]{name: name, items: items}, nil
}

// Get returns the cached value for key or ErrCacheMiss.
func (c *ResultCache[V]) Get(key string) (V, error) {
	v, ok := c.items.Get(key)
	metrics.RecordCacheAccess(c.name, ok)
	if !ok {
		var zero V
		return zero, ErrCacheMiss
	}
	return v, nil
}

// Set stores value under key, evicting the least recently used entry if full.
func (c *ResultCache[V]) Set(key string, value V) {
	c.items.Add(key, value)
}

// Len returns the number of cached entries.
func (c *ResultCache[V]) Len() int {
	return c.items.Len()
}

// Purge removes all entries.
func (c *ResultCache[V]) Purge() {
	c.items.Purge()
}

// Key returns a hex sha256 over parts, each separated by a zero byte so that
// ("ab","c") and ("a","bc") differ.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
