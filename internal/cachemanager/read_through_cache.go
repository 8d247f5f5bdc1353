package cachemanager

import (
	"context"
	"sync/atomic"
	"time"
)

// ReadThroughCache fills a CacheManager through load on a miss. Errors are
// returned and never cached. Concurrent misses on one key each call load.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache CacheManager[K, V]
	load  func(ctx context.Context, input I) (V, error)
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewReadThroughCache stores loaded values for ttl. A ttl of zero or less
// uses DefaultExpiration.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	ttl time.Duration,
	load func(ctx context.Context, input I) (V, error),
) *ReadThroughCache[K, V, I] {
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &ReadThroughCache[K, V, I]{cache: cache, load: load, ttl: ttl}
}

// Get returns the value under key, loading it from input on a miss. cached
// reports whether the value came from the cache.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I) (value V, cached bool, err error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		r.hits.Add(1)
		return value, true, nil
	}
	r.misses.Add(1)

	value, err = r.load(ctx, input)
	if err != nil {
		return value, false, err
	}
	r.cache.Set(ctx, key, value, r.ttl)
	return value, false, nil
}

// Stats returns the hit and miss counts since creation.
func (r *ReadThroughCache[K, V, I]) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}
