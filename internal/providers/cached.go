package providers

import (
	"context"
	"errors"

	"github.com/leefowlercu/chunkalyze/internal/cache"
)

// ResultCache is the subset of cache.ResultCache used by Cached.
type ResultCache interface {
	Get(key string) (*MethodResult, error)
	Set(key string, value *MethodResult)
}

// Cached wraps a Backend and serves repeated identical requests from a cache.
// Only successful results are stored.
type Cached struct {
	next  Backend
	cache ResultCache
}

// NewCached wraps next with a result cache.
func NewCached(next Backend, c ResultCache) Backend {
	return &Cached{next: next, cache: c}
}

func (c *Cached) Method() Method {
	return c.next.Method()
}

// Analyze returns a cached result for the same method, endpoint, key and body, or
// delegates and caches the outcome.
func (c *Cached) Analyze(ctx context.Context, req ChunkRequest) (*MethodResult, error) {
	key := requestKey(c.Method(), req)

	if res, err := c.cache.Get(key); err == nil {
		return res, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, err
	}

	res, err := c.next.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, res)
	return res, nil
}

// requestKey scopes entries to the subscription key so a result is only
// served to callers presenting the key it was fetched with. The key itself
// is never stored; only the digest is.
func requestKey(m Method, req ChunkRequest) string {
	return cache.Key(
		[]byte(m),
		[]byte(req.Endpoint.URL),
		[]byte(req.Endpoint.Key),
		[]byte(req.Endpoint.Region),
		req.Body,
	)
}
