package machine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/iceguest/internal/cachemanager"
	"github.com/zjrosen/iceguest/internal/guest/guesttest"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/guest/page"
	"github.com/zjrosen/iceguest/internal/guest/world"
)

type fixture struct {
	t       testing.TB
	page    *page.Page
	sandbox world.SandboxCache
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	p := guesttest.SamplePage(t)
	sandbox := cachemanager.NewInMemoryCacheManager[string, model.SandboxItem]("sandbox", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	for _, item := range p.SandboxItems {
		sandbox.Set(context.Background(), item.Path, item, cachemanager.DefaultExpiration)
	}
	return &fixture{t: t, page: p, sandbox: sandbox}
}

// apply reduces the events in order, opening a fresh world per event.
func (f *fixture) apply(s *machine.State, events ...machine.Event) *machine.State {
	for _, ev := range events {
		w, release := world.Open(context.Background(), f.page.ICE, f.page.Elements, f.sandbox)
		s = machine.Reduce(s, ev, w)
		release()
	}
	return s
}

// checkedIn returns the state after alice checked in on mysite.
func (f *fixture) checkedIn() *machine.State {
	return f.apply(machine.Initial(), machine.HostCheckIn{
		AuthoringBase: "/studio",
		HighlightMode: machine.HighlightAll,
		EditMode:      true,
		RTEConfig:     map[string]any{},
		Site:          "mysite",
		Username:      "alice",
	})
}

func (f *fixture) element(name string) int {
	return guesttest.Element(f.t, f.page, name)
}

func (f *fixture) node(name string) model.NodeID {
	return guesttest.Node(f.t, f.page, name)
}

func (f *fixture) ice(modelID, fieldID string, index model.ItemIndex) int {
	return guesttest.ICE(f.t, f.page, modelID, fieldID, index)
}

// appendChild adds an unregistered node to a named element.
func (f *fixture) appendChild(name string, rect model.Rect) model.NodeID {
	n, err := f.page.Doc.Append(f.node(name), "article", rect)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) remove(name string) {
	require.NoError(f.t, f.page.Doc.Remove(f.node(name)))
}

func requireReset(t require.TestingT, s *machine.State) {
	require.Equal(t, machine.StatusListening, s.Status)
	require.Nil(t, s.DragContext)
	require.Empty(t, s.Highlighted)
	require.Empty(t, s.Draggable)
}

func requireDragInvariant(t require.TestingT, s *machine.State) {
	require.Equal(t, s.Status.IsDragging(), s.DragContext != nil, "status %s", s.Status)
}

func ptr[T any](v T) *T { return &v }
