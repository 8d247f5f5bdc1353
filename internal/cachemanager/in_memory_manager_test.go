package cachemanager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/iceguest/internal/guest/model"
)

type contentPath string

func newSandboxCache() *InMemoryCacheManager[contentPath, model.SandboxItem] {
	return NewInMemoryCacheManager[contentPath, model.SandboxItem]("sandbox", DefaultExpiration, DefaultCleanupInterval)
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := newSandboxCache()
	item := model.SandboxItem{Path: "/site/website/index.xml", AvailableActions: model.ActionEdit}
	cache.Set(context.Background(), "/site/website/index.xml", item, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "/site/website/index.xml")
	require.True(t, ok)
	require.Equal(t, item, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_GetMissingValue(t *testing.T) {
	cache := newSandboxCache()

	got, ok := cache.Get(context.Background(), "/site/missing.xml")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithWrongValueType(t *testing.T) {
	cache := newSandboxCache()
	cache.cache.Set("/site/a.xml", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "/site/a.xml")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := newSandboxCache()
	cache.Set(context.Background(), "/site/a.xml", model.SandboxItem{Path: "/site/a.xml"}, time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "/site/a.xml")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_Update(t *testing.T) {
	cache := newSandboxCache()
	ctx := context.Background()
	setOwner := func(owner string) func(model.SandboxItem) model.SandboxItem {
		return func(item model.SandboxItem) model.SandboxItem {
			item.LockOwner = owner
			return item
		}
	}

	require.False(t, cache.Update(ctx, "/site/a.xml", DefaultExpiration, setOwner("bob")))
	_, ok := cache.Get(ctx, "/site/a.xml")
	require.False(t, ok)

	cache.Set(ctx, "/site/a.xml", model.SandboxItem{Path: "/site/a.xml", AvailableActions: model.ActionEdit}, DefaultExpiration)
	require.True(t, cache.Update(ctx, "/site/a.xml", DefaultExpiration, setOwner("bob")))
	got, ok := cache.Get(ctx, "/site/a.xml")
	require.True(t, ok)
	require.Equal(t, "bob", got.LockOwner)
	require.Equal(t, model.ActionEdit, got.AvailableActions)

	cache.cache.Set("/site/b.xml", "not an item", DefaultExpiration)
	require.False(t, cache.Update(ctx, "/site/b.xml", DefaultExpiration, setOwner("bob")))
}

func TestInMemoryCacheManager_ConcurrentUpdates(t *testing.T) {
	cache := NewInMemoryCacheManager[string, int]("counter", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()
	cache.Set(ctx, "n", 0, DefaultExpiration)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				cache.Update(ctx, "n", DefaultExpiration, func(n int) int { return n + 1 })
			}
		}()
	}
	wg.Wait()

	got, ok := cache.Get(ctx, "n")
	require.True(t, ok)
	require.Equal(t, 800, got)
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	cache := newSandboxCache()
	ctx := context.Background()
	cache.Set(ctx, "/site/a.xml", model.SandboxItem{Path: "/site/a.xml"}, DefaultExpiration)
	cache.Set(ctx, "/site/b.xml", model.SandboxItem{Path: "/site/b.xml"}, DefaultExpiration)

	require.NoError(t, cache.Delete(ctx))
	require.Equal(t, 2, cache.Len())
	require.NoError(t, cache.Delete(ctx, "/site/a.xml", "/site/missing.xml"))
	_, ok := cache.Get(ctx, "/site/a.xml")
	require.False(t, ok)
	require.Equal(t, 1, cache.Len())
}
