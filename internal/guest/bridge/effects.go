package bridge

import (
	"context"

	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/log"
)

// applyHostData loads host supplied content into the registries and the
// sandbox cache before the transition reads them. The state machine itself
// never writes to either.
func (b *Bridge) applyHostData(ctx context.Context, ev machine.Event) {
	switch e := ev.(type) {
	case machine.ContentTypesResponse:
		if len(e.ContentTypes) == 0 {
			return
		}
		b.ice.SetContentTypes(e.ContentTypes)
		log.Debug(log.CatRegistry, "content types loaded", "count", len(e.ContentTypes))

	case machine.FetchGuestModelComplete:
		if len(e.Models) > 0 {
			b.ice.PutModels(e.Models...)
			log.Debug(log.CatRegistry, "models loaded", "count", len(e.Models))
		}
		if b.sandbox == nil {
			return
		}
		for _, item := range e.SandboxItems {
			if item.Path == "" {
				continue
			}
			b.sandbox.Set(ctx, item.Path, item, b.sandboxTTL)
		}

	case machine.LockContentEvent:
		b.relock(ctx, e)

	case machine.ContentEvent:
		// The cached working copy no longer reflects the item.
		if b.sandbox == nil || e.TargetPath == "" {
			return
		}
		if err := b.sandbox.Delete(ctx, e.TargetPath); err != nil {
			log.ErrorErr(log.CatCache, "sandbox invalidation failed", err, "path", e.TargetPath)
		}
	}
}

// relock keeps the lock owner of a cached sandbox item in step with lock
// events. Items that are not cached stay uncached.
func (b *Bridge) relock(ctx context.Context, e machine.LockContentEvent) {
	if b.sandbox == nil || e.TargetPath == "" {
		return
	}
	owner := ""
	if e.Locked {
		owner = e.User.Username
	}
	b.sandbox.Update(ctx, e.TargetPath, b.sandboxTTL, func(item model.SandboxItem) model.SandboxItem {
		item.LockOwner = owner
		return item
	})
}
