package cachemanager

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/iceguest/internal/log"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// NewInMemoryCacheManager initializes the in-memory cache. useCase names the
// cache in log lines.
func NewInMemoryCacheManager[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// InMemoryCacheManager is the go-cache backed CacheManager.
type InMemoryCacheManager[K ~string, V any] struct {
	useCase string
	// mu serializes writers so Update sees no interleaved Set.
	mu    sync.Mutex
	cache *gocache.Cache
}

var _ CacheManager[string, struct{}] = (*InMemoryCacheManager[string, struct{}])(nil)

// Get retrieves an item from the cache by its key
func (c *InMemoryCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zeroValue V

	value, found := c.cache.Get(string(key))
	if !found {
		return zeroValue, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "cache", c.useCase, "key", key)

		return zeroValue, false
	}

	log.Debug(log.CatCache, "cache hit", "cache", c.useCase, "key", key)

	return v, true
}

// Set stores value under key for ttl.
func (c *InMemoryCacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Set(string(key), value, ttl)
}

// Update rewrites a cached value in place.
func (c *InMemoryCacheManager[K, V]) Update(ctx context.Context, key K, ttl time.Duration, fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, found := c.cache.Get(string(key))
	if !found {
		return false
	}
	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when updating value", "cache", c.useCase, "key", key)

		return false
	}
	c.cache.Set(string(key), fn(v), ttl)

	return true
}

// Delete removes values by key.
func (c *InMemoryCacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		c.cache.Delete(string(key))
	}

	return nil
}

// Len returns the number of cached values, expired ones included until the
// next cleanup.
func (c *InMemoryCacheManager[K, V]) Len() int {
	return c.cache.ItemCount()
}
