package scenario

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/zjrosen/iceguest/internal/cachemanager"
	"github.com/zjrosen/iceguest/internal/guest/page"
	"github.com/zjrosen/iceguest/internal/log"
)

// FixtureCache holds parsed page fixtures by content digest.
type FixtureCache = cachemanager.CacheManager[string, page.Fixture]

// Loader builds the pages of scenarios. Page files are parsed once per
// content digest, so replaying under --watch re-parses only what changed.
type Loader struct {
	fixtures *cachemanager.ReadThroughCache[string, page.Fixture, []byte]
}

// NewLoader creates a loader over cache. A nil cache gets a private
// in-memory one.
func NewLoader(cache FixtureCache, ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = cachemanager.DefaultExpiration
	}
	if cache == nil {
		cache = cachemanager.NewInMemoryCacheManager[string, page.Fixture]("fixtures", ttl, cachemanager.DefaultCleanupInterval)
	}
	return &Loader{fixtures: cachemanager.NewReadThroughCache(cache, ttl, parseFixture)}
}

func parseFixture(_ context.Context, data []byte) (page.Fixture, error) {
	return page.Parse(data)
}

// Fixture returns the page fixture of sc.
func (l *Loader) Fixture(ctx context.Context, sc *Scenario) (page.Fixture, error) {
	if sc.Fixture != nil {
		f := *sc.Fixture
		f.SetDefaults()
		return f, nil
	}
	path := sc.PagePath()
	if path == "" {
		return page.Fixture{}, ErrNoPage
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the scenario file
	if err != nil {
		return page.Fixture{}, fmt.Errorf("read page fixture: %w", err)
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	f, cached, err := l.fixtures.Get(ctx, key, data)
	if err != nil {
		return page.Fixture{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug(log.CatScenario, "loaded page fixture", "path", path, "digest", key[:12], "cached", cached)
	return f, nil
}

// Stats returns the fixture cache hit and miss counts.
func (l *Loader) Stats() (hits, misses int64) {
	return l.fixtures.Stats()
}

// Build mounts the page of sc.
func (l *Loader) Build(ctx context.Context, sc *Scenario) (*page.Page, error) {
	f, err := l.Fixture(ctx, sc)
	if err != nil {
		return nil, err
	}
	p, err := page.Build(f)
	if err != nil {
		return nil, fmt.Errorf("build page: %w", err)
	}
	return p, nil
}
