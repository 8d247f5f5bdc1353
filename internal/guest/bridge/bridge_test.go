package bridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/iceguest/internal/cachemanager"
	"github.com/zjrosen/iceguest/internal/guest/bridge"
	"github.com/zjrosen/iceguest/internal/guest/guesttest"
	"github.com/zjrosen/iceguest/internal/guest/journal"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/model"
	"github.com/zjrosen/iceguest/internal/guest/page"
	"github.com/zjrosen/iceguest/internal/pubsub"
)

type harness struct {
	t       *testing.T
	page    *page.Page
	sandbox *cachemanager.InMemoryCacheManager[string, model.SandboxItem]
	bridge  *bridge.Bridge
}

func start(t *testing.T, opts ...bridge.Option) *harness {
	t.Helper()
	p := guesttest.SamplePage(t)
	sandbox := cachemanager.NewInMemoryCacheManager[string, model.SandboxItem]("sandbox", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	for _, item := range p.SandboxItems {
		sandbox.Set(context.Background(), item.Path, item, cachemanager.DefaultExpiration)
	}
	opts = append([]bridge.Option{bridge.WithSandboxCache(sandbox, cachemanager.DefaultExpiration)}, opts...)
	b := bridge.New(p.ICE, p.Elements, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	require.NoError(t, b.WaitForReady(ctx))
	t.Cleanup(func() {
		cancel()
		b.Stop()
	})
	return &harness{t: t, page: p, sandbox: sandbox, bridge: b}
}

func (h *harness) dispatch(ev machine.Event) *bridge.Result {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := h.bridge.DispatchAndWait(ctx, ev, bridge.SourceScript)
	require.NoError(h.t, err)
	return res
}

func (h *harness) move(x, y float64) []*bridge.Result {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := h.bridge.MovePointerAndWait(ctx, x, y)
	require.NoError(h.t, err)
	return res
}

func (h *harness) checkIn() {
	h.t.Helper()
	res := h.dispatch(machine.HostCheckIn{
		AuthoringBase: "/studio",
		HighlightMode: machine.HighlightAll,
		EditMode:      true,
		Site:          "mysite",
		Username:      "alice",
	})
	require.True(h.t, res.After.HostCheckedIn)
}

func (h *harness) element(name string) int {
	return guesttest.Element(h.t, h.page, name)
}

func TestCheckInGate_DropsBeforeCheckIn(t *testing.T) {
	h := start(t)

	res := h.dispatch(machine.MouseOver{Record: h.element("feat-1-title")})
	require.True(t, res.Dropped)
	require.Equal(t, bridge.ReasonNotCheckedIn, res.Reason)
	require.False(t, res.Changed())
	require.Equal(t, int64(1), h.bridge.DroppedCount())

	h.checkIn()
	res = h.dispatch(machine.MouseOver{Record: h.element("feat-1-title")})
	require.False(t, res.Dropped)
	require.True(t, res.Changed())
	require.NotEmpty(t, h.bridge.State().Highlighted)
}

func TestCheckInGate_EditModeOff(t *testing.T) {
	h := start(t)
	h.dispatch(machine.HostCheckIn{Site: "mysite", Username: "alice", EditMode: false})

	res := h.dispatch(machine.DragStart{Record: h.element("feat-1")})
	require.True(t, res.Dropped)
	require.Equal(t, bridge.ReasonEditModeOff, res.Reason)
	require.Nil(t, h.bridge.State().DragContext)
}

func TestCheckInGate_PassesEnvironmentEvents(t *testing.T) {
	h := start(t)

	res := h.dispatch(machine.SetLockedItems{Items: []model.LockedItem{{Path: "/site/a.xml", LockOwner: "bob"}}})
	require.False(t, res.Dropped)
	require.True(t, h.bridge.State().IsLocked("/site/a.xml"))
}

func TestWithoutCheckInGate(t *testing.T) {
	h := start(t, bridge.WithoutCheckInGate())

	res := h.dispatch(machine.MouseOver{Record: h.element("feat-1-title")})
	require.False(t, res.Dropped)
	require.True(t, res.Changed())
}

func TestDispatch_FIFO(t *testing.T) {
	h := start(t)

	require.NoError(t, h.bridge.Dispatch(machine.HostCheckIn{EditMode: true, Username: "alice"}, bridge.SourceHost))
	require.NoError(t, h.bridge.Dispatch(machine.MouseOver{Record: h.element("feat-1-title")}, bridge.SourcePointer))
	res := h.dispatch(machine.MouseLeave{})

	require.True(t, res.Changed(), "mouseleave applied after the hover")
	require.Empty(t, res.After.Highlighted)
	require.Equal(t, int64(3), h.bridge.ProcessedCount())
	require.Equal(t, int64(0), h.bridge.DroppedCount())
}

func TestDispatch_PublishesStates(t *testing.T) {
	h := start(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := h.bridge.Broker().Subscribe(ctx)

	first := receive(t, sub)
	require.Equal(t, pubsub.StateEvent, first.Type)
	require.False(t, first.Payload.HostCheckedIn)

	h.dispatch(machine.MouseOver{Record: h.element("feat-1-title")})
	dropped := receive(t, sub)
	require.Equal(t, pubsub.DroppedEvent, dropped.Type)

	h.checkIn()
	next := receive(t, sub)
	require.Equal(t, pubsub.StateEvent, next.Type)
	require.True(t, next.Payload.HostCheckedIn)
	require.Same(t, h.bridge.State(), next.Payload)
}

func receive(t *testing.T, ch <-chan pubsub.Event[*machine.State]) pubsub.Event[*machine.State] {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return pubsub.Event[*machine.State]{}
	}
}

func TestHostData_ContentTypes(t *testing.T) {
	h := start(t)

	h.dispatch(machine.ContentTypesResponse{ContentTypes: map[string]model.ContentType{
		"/component/quote": {Name: "Quote", Type: "component"},
	}})

	rd, release := h.page.ICE.Read()
	defer release()
	ct, ok := rd.ContentType("/component/quote")
	require.True(t, ok)
	require.Equal(t, "/component/quote", ct.ID)
	require.Contains(t, h.bridge.State().ContentTypes, "/component/quote")
}

func TestHostData_SandboxItemsWithoutEditAction(t *testing.T) {
	h := start(t)
	h.checkIn()

	h.dispatch(machine.FetchGuestModelComplete{SandboxItems: []model.SandboxItem{
		{Path: guesttest.PagePath, AvailableActions: 0},
	}})
	item, ok := h.sandbox.Get(context.Background(), guesttest.PagePath)
	require.True(t, ok)
	require.False(t, item.CanEdit())

	res := h.dispatch(machine.ComponentDragStarted{ContentType: model.ContentType{ID: guesttest.FeatureType}})
	require.Equal(t, machine.StatusPlacingNewComponent, res.After.Status)
	require.Empty(t, res.After.DragContext.DropZones)
}

func TestHostData_UnlockClearsCachedOwner(t *testing.T) {
	h := start(t)
	h.checkIn()

	h.dispatch(machine.FetchGuestModelComplete{SandboxItems: []model.SandboxItem{
		{Path: guesttest.PagePath, LockOwner: "bob", AvailableActions: 7},
	}})
	require.True(t, h.bridge.State().IsLocked(guesttest.PagePath))

	h.dispatch(machine.LockContentEvent{Locked: false, TargetPath: guesttest.PagePath})
	require.False(t, h.bridge.State().IsLocked(guesttest.PagePath))
	item, ok := h.sandbox.Get(context.Background(), guesttest.PagePath)
	require.True(t, ok)
	require.Empty(t, item.LockOwner)

	res := h.dispatch(machine.ComponentDragStarted{ContentType: model.ContentType{ID: guesttest.FeatureType}})
	require.Len(t, res.After.DragContext.DropZones, 2)
}

func TestHostData_LockUpdatesCachedOwner(t *testing.T) {
	h := start(t)
	h.checkIn()

	h.dispatch(machine.LockContentEvent{Locked: true, User: model.User{Username: "bob"}, TargetPath: guesttest.SharedPath})
	item, ok := h.sandbox.Get(context.Background(), guesttest.SharedPath)
	require.True(t, ok)
	require.Equal(t, "bob", item.LockOwner)
}

func TestHostData_ContentEventInvalidatesCache(t *testing.T) {
	h := start(t)

	h.dispatch(machine.ContentEvent{User: model.User{Username: "bob"}, TargetPath: guesttest.SharedPath})
	_, ok := h.sandbox.Get(context.Background(), guesttest.SharedPath)
	require.False(t, ok)
	require.True(t, h.bridge.State().IsExternallyModified(guesttest.SharedPath))
}

func TestPointer_IgnoredWithoutDrag(t *testing.T) {
	h := start(t)
	h.checkIn()

	require.Empty(t, h.move(10, 650))
}

func TestPointer_TranslatesDrag(t *testing.T) {
	h := start(t)
	h.checkIn()
	res := h.dispatch(machine.DragStart{Record: h.element("feat-1")})
	require.Equal(t, machine.StatusSortingComponent, res.After.Status)

	// over feat-2 inside sections: enter sections, drag over feat-2
	results := h.move(10, 650)
	require.Len(t, results, 2)
	dc := h.bridge.State().DragContext
	require.NotNil(t, dc.Over)
	require.Equal(t, h.element("feat-2"), dc.Over.ID)
	require.NotNil(t, dc.DropZone)
	require.Equal(t, h.element("sections"), dc.DropZone.ElementRecordID)

	// same player again: only the drag over
	require.Len(t, h.move(20, 660), 1)

	// over feat-3 in the gallery: leave sections, enter gallery, drag over
	results = h.move(10, 900)
	require.Len(t, results, 3)
	dc = h.bridge.State().DragContext
	require.Equal(t, h.element("feat-3"), dc.Over.ID)
	require.Equal(t, h.element("gallery"), dc.DropZone.ElementRecordID)
	require.False(t, dc.InvalidDrop)

	// off the page: leave gallery and drag leave
	results = h.move(10, 5000)
	require.Len(t, results, 2)
	dc = h.bridge.State().DragContext
	require.Nil(t, dc.Over)
	require.False(t, dc.InZone)

	res = h.dispatch(machine.ComputedDragEnd{})
	require.Equal(t, machine.StatusListening, res.After.Status)
	require.Empty(t, h.move(10, 650))
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *recordingJournal) Append(_ context.Context, e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func TestJournal_RecordsEveryDispatch(t *testing.T) {
	j := &recordingJournal{}
	h := start(t, bridge.WithJournal(j))

	h.dispatch(machine.MouseOver{Record: h.element("feat-1-title")})
	h.checkIn()
	h.dispatch(machine.DragStart{Record: h.element("feat-1")})
	h.move(10, 650)

	j.mu.Lock()
	defer j.mu.Unlock()
	require.Len(t, j.entries, 5)

	require.Equal(t, "mouseover", j.entries[0].Type)
	require.True(t, j.entries[0].Dropped)
	require.Equal(t, bridge.ReasonNotCheckedIn, j.entries[0].Reason)

	require.Equal(t, "hostCheckIn", j.entries[1].Type)
	require.True(t, j.entries[1].Changed)
	require.JSONEq(t, `"mysite"`, jsonField(t, j.entries[1].Payload, "site"))

	require.Equal(t, "dragstart", j.entries[2].Type)
	require.Equal(t, "LISTENING", j.entries[2].StatusBefore)
	require.Equal(t, "SORTING_COMPONENT", j.entries[2].StatusAfter)

	require.Equal(t, "dropzoneEnter", j.entries[3].Type)
	require.Equal(t, string(bridge.SourcePointer), j.entries[3].Source)
	require.Equal(t, "computedDragOver", j.entries[4].Type)
	require.NotEmpty(t, j.entries[4].EnvelopeID)
}

func jsonField(t *testing.T, payload json.RawMessage, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &m))
	return string(m[key])
}

func TestLifecycle(t *testing.T) {
	p := guesttest.SamplePage(t)
	b := bridge.New(p.ICE, p.Elements)

	require.ErrorIs(t, b.Dispatch(machine.MouseLeave{}, bridge.SourceLocal), bridge.ErrNotRunning)
	_, err := b.DispatchAndWait(context.Background(), machine.MouseLeave{}, bridge.SourceLocal)
	require.ErrorIs(t, err, bridge.ErrNotRunning)

	ctx := context.Background()
	go b.Run(ctx)
	require.NoError(t, b.WaitForReady(ctx))
	require.True(t, b.IsRunning())

	for range 10 {
		require.NoError(t, b.Dispatch(machine.SetEditModePadding{EditModePadding: true}, bridge.SourceHost))
	}
	b.Drain()
	require.False(t, b.IsRunning())
	require.Equal(t, int64(10), b.ProcessedCount())
	require.True(t, b.State().EditModePadding)
	require.ErrorIs(t, b.Dispatch(machine.MouseLeave{}, bridge.SourceLocal), bridge.ErrNotRunning)
}

func TestDispatch_QueueFull(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	blocking := func(next bridge.Handler) bridge.Handler {
		return bridge.HandlerFunc(func(ctx context.Context, env *bridge.Envelope) (*bridge.Result, error) {
			if _, ok := env.Event.(machine.Scrolling); ok {
				entered <- struct{}{}
				<-release
			}
			return next.Handle(ctx, env)
		})
	}
	h := start(t, bridge.WithQueueCapacity(1), bridge.WithMiddleware(blocking))

	require.NoError(t, h.bridge.Dispatch(machine.Scrolling{}, bridge.SourceLocal))
	<-entered
	require.NoError(t, h.bridge.Dispatch(machine.MouseLeave{}, bridge.SourceLocal))
	require.ErrorIs(t, h.bridge.Dispatch(machine.MouseLeave{}, bridge.SourceLocal), bridge.ErrQueueFull)
	require.Equal(t, 1, h.bridge.QueueLength())
	close(release)
}

func TestDrain_ConcurrentDispatch(t *testing.T) {
	p := guesttest.SamplePage(t)
	b := bridge.New(p.ICE, p.Elements, bridge.WithQueueCapacity(4096))
	ctx := context.Background()
	go b.Run(ctx)
	require.NoError(t, b.WaitForReady(ctx))

	var accepted, unexpected atomic.Int64
	var wg sync.WaitGroup
	ready := make(chan struct{})
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ready
			for range 200 {
				err := b.Dispatch(machine.SetEditModePadding{EditModePadding: true}, bridge.SourceHost)
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, bridge.ErrNotRunning), errors.Is(err, bridge.ErrQueueFull):
				default:
					unexpected.Add(1)
				}
			}
		}()
	}

	close(ready)
	b.Drain()
	wg.Wait()

	require.Zero(t, unexpected.Load())
	require.False(t, b.IsRunning())
	require.Equal(t, accepted.Load(), b.ProcessedCount())
	require.ErrorIs(t, b.Dispatch(machine.MouseLeave{}, bridge.SourceHost), bridge.ErrNotRunning)
	b.Drain()
}

func TestProcess_HandlerErrorsAreCounted(t *testing.T) {
	boom := errors.New("boom")
	failing := func(next bridge.Handler) bridge.Handler {
		return bridge.HandlerFunc(func(ctx context.Context, env *bridge.Envelope) (*bridge.Result, error) {
			if _, ok := env.Event.(machine.Scrolling); ok {
				return nil, boom
			}
			return next.Handle(ctx, env)
		})
	}
	h := start(t, bridge.WithMiddleware(failing))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := h.bridge.DispatchAndWait(ctx, machine.Scrolling{}, bridge.SourceLocal)
	require.ErrorIs(t, err, boom)

	h.dispatch(machine.MouseLeave{})
	require.Equal(t, int64(1), h.bridge.ErrorCount())
	require.Equal(t, int64(2), h.bridge.ProcessedCount())
}
