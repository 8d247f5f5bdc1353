package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/zjrosen/iceguest/internal/cachemanager"
	"github.com/zjrosen/iceguest/internal/config"
	"github.com/zjrosen/iceguest/internal/guest/bridge"
	"github.com/zjrosen/iceguest/internal/guest/journal"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/guest/page"
	"github.com/zjrosen/iceguest/internal/infrastructure/sqlite"
	"github.com/zjrosen/iceguest/internal/log"
	"github.com/zjrosen/iceguest/internal/tracing"
)

// initialState seeds the machine with the configured guest defaults. The
// host check-in overrides them.
func initialState(g config.GuestConfig) *machine.State {
	s := machine.Initial()
	if mode := machine.HighlightMode(g.HighlightMode); mode.Valid() {
		s.HighlightMode = mode
	}
	s.EditModePadding = g.EditModePadding
	return s
}

// bridgeOptions are the options every bridge built by a command shares.
func bridgeOptions(c config.Config, tp *tracing.Provider) []bridge.Option {
	middlewares := []bridge.Middleware{bridge.NewLoggingMiddleware()}
	if tp != nil && tp.Enabled() {
		middlewares = append(middlewares, tracing.NewMiddleware(tp.Tracer()))
	}
	opts := []bridge.Option{
		bridge.WithQueueCapacity(c.Bridge.QueueCapacity),
		bridge.WithInitialState(initialState(c.Guest)),
		bridge.WithMiddleware(middlewares...),
	}
	if !c.Guest.RequireCheckIn {
		opts = append(opts, bridge.WithoutCheckInGate())
	}
	return opts
}

// loadPage reads and mounts a page fixture file.
func loadPage(path string) (*page.Page, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("read page fixture: %w", err)
	}
	f, err := page.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return page.Build(f)
}

// newSandboxCache creates the sandbox item cache seeded with items.
func newSandboxCache(ctx context.Context, c config.CacheConfig, items []model.SandboxItem) cachemanager.CacheManager[string, model.SandboxItem] {
	cache := cachemanager.NewInMemoryCacheManager[string, model.SandboxItem]("sandbox", c.SandboxTTL, c.CleanupInterval)
	for _, item := range items {
		cache.Set(ctx, item.Path, item, c.SandboxTTL)
	}
	return cache
}

// openJournal starts a journal session for source. It returns a nil writer
// when journaling is off. The returned close function is never nil.
func openJournal(ctx context.Context, c config.JournalConfig, source string) (*journal.Writer, func(), error) {
	if !c.Enabled {
		return nil, func() {}, nil
	}
	path := c.Path
	if path == "" {
		path = config.DefaultJournalPath()
	}
	db, err := sqlite.NewDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening journal: %w", err)
	}
	w, err := journal.Start(ctx, db.JournalRepository(), source)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info(log.CatJournal, "journal session started", "guid", w.Session().GUID, "source", source)

	return w, func() {
		if err := w.Close(context.Background()); err != nil {
			log.ErrorErr(log.CatJournal, "closing journal session", err)
		}
		if err := db.Close(); err != nil {
			log.ErrorErr(log.CatJournal, "closing journal database", err)
		}
	}, nil
}
