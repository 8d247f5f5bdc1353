// Package cachemanager holds the guest's keyed TTL caches: working-copy
// sandbox items by content path and parsed page fixtures by digest.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a keyed TTL cache.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	// Update replaces a cached value with fn(value), the read and the write
	// under one lock. Keys that are not cached stay uncached; the result
	// reports whether fn ran.
	Update(ctx context.Context, key K, ttl time.Duration, fn func(V) V) bool
	Delete(ctx context.Context, keys ...K) error
}
