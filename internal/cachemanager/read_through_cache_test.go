package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type parsed struct {
	Name  string
	Nodes int
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (parsed, bool) {
	args := m.Called(ctx, key)
	return args.Get(0).(parsed), args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value parsed, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCache) Update(ctx context.Context, key string, ttl time.Duration, fn func(parsed) parsed) bool {
	return m.Called(ctx, key, ttl).Bool(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func parseFn(calls *int) func(ctx context.Context, input string) (parsed, error) {
	return func(ctx context.Context, input string) (parsed, error) {
		*calls++
		if input == "" {
			return parsed{}, errors.New("empty document")
		}
		return parsed{Name: input, Nodes: len(input)}, nil
	}
}

func TestReadThroughCache_Hit(t *testing.T) {
	cache := &mockCache{}
	cache.On("Get", mock.Anything, "key").Return(parsed{Name: "cached"}, true)
	calls := 0
	rtc := NewReadThroughCache[string, parsed, string](cache, time.Minute, parseFn(&calls))

	got, cached, err := rtc.Get(context.Background(), "key", "page")
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, "cached", got.Name)
	require.Zero(t, calls)

	hits, misses := rtc.Stats()
	require.Equal(t, int64(1), hits)
	require.Zero(t, misses)
	cache.AssertExpectations(t)
}

func TestReadThroughCache_MissStores(t *testing.T) {
	cache := &mockCache{}
	cache.On("Get", mock.Anything, "key").Return(parsed{}, false)
	cache.On("Set", mock.Anything, "key", parsed{Name: "page", Nodes: 4}, time.Minute).Return()
	calls := 0
	rtc := NewReadThroughCache[string, parsed, string](cache, time.Minute, parseFn(&calls))

	got, cached, err := rtc.Get(context.Background(), "key", "page")
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, parsed{Name: "page", Nodes: 4}, got)
	require.Equal(t, 1, calls)
	cache.AssertExpectations(t)
}

func TestReadThroughCache_ErrorNotStored(t *testing.T) {
	cache := &mockCache{}
	cache.On("Get", mock.Anything, "key").Return(parsed{}, false)
	calls := 0
	rtc := NewReadThroughCache[string, parsed, string](cache, time.Minute, parseFn(&calls))

	_, cached, err := rtc.Get(context.Background(), "key", "")
	require.Error(t, err)
	require.False(t, cached)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	_, misses := rtc.Stats()
	require.Equal(t, int64(1), misses)
}

func TestReadThroughCache_DefaultTTL(t *testing.T) {
	cache := &mockCache{}
	cache.On("Get", mock.Anything, "key").Return(parsed{}, false)
	cache.On("Set", mock.Anything, "key", mock.Anything, DefaultExpiration).Return()
	calls := 0
	rtc := NewReadThroughCache[string, parsed, string](cache, 0, parseFn(&calls))

	_, _, err := rtc.Get(context.Background(), "key", "page")
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestReadThroughCache_WithInMemoryCache(t *testing.T) {
	calls := 0
	cache := NewInMemoryCacheManager[string, parsed]("fixtures", DefaultExpiration, DefaultCleanupInterval)
	rtc := NewReadThroughCache[string, parsed, string](cache, DefaultExpiration, parseFn(&calls))

	for i := range 3 {
		got, cached, err := rtc.Get(context.Background(), "digest", "page")
		require.NoError(t, err)
		require.Equal(t, i > 0, cached)
		require.Equal(t, "page", got.Name)
	}
	require.Equal(t, 1, calls)

	hits, misses := rtc.Stats()
	require.Equal(t, int64(2), hits)
	require.Equal(t, int64(1), misses)
}
