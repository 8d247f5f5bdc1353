// Package world assembles the read-only view the editing state machine
// consults during one transition.
package world

import (
	"context"

	"github.com/zjrosen/iceguest/internal/cachemanager"
	"github.com/zjrosen/iceguest/internal/guest/elementregistry"
	"github.com/zjrosen/iceguest/internal/guest/iceregistry"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
)

var _ machine.World = (*Snapshot)(nil)

type (
	elements = elementregistry.Reader
	records  = iceregistry.Reader
)

// SandboxCache stores sandbox items by content path.
type SandboxCache = cachemanager.CacheManager[string, model.SandboxItem]

// Snapshot joins the element and ICE registry readers with the sandbox item
// cache. It holds both registries' read locks until released, so mount and
// unmount wait for the transition to finish.
type Snapshot struct {
	*elements
	*records

	ctx     context.Context
	sandbox SandboxCache
}

// Open acquires the registries in a fixed order (ICE first) and returns the
// snapshot with its release function. sandbox may be nil.
func Open(ctx context.Context, ice *iceregistry.Registry, els *elementregistry.Registry, sandbox SandboxCache) (*Snapshot, func()) {
	iceReader, releaseICE := ice.Read()
	elReader, releaseElements := els.Read(iceReader)
	s := &Snapshot{
		elements: elReader,
		records:  iceReader,
		ctx:      ctx,
		sandbox:  sandbox,
	}
	return s, func() {
		releaseElements()
		releaseICE()
	}
}

// SandboxItem returns the cached sandbox state of path.
func (s *Snapshot) SandboxItem(path string) (model.SandboxItem, bool) {
	if s.sandbox == nil || path == "" {
		return model.SandboxItem{}, false
	}
	return s.sandbox.Get(s.ctx, path)
}
