// Package bridge is the host side of the editing state machine: a
// single-goroutine loop that takes events in strict FIFO order, resolves one
// world snapshot per event, runs the transition and publishes the resulting
// state. Host data (content types, models, sandbox items) is loaded into the
// registries here, before the transition that reads it.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/iceguest/internal/cachemanager"
	"github.com/zjrosen/iceguest/internal/guest/elementregistry"
	"github.com/zjrosen/iceguest/internal/guest/iceregistry"
	"github.com/zjrosen/iceguest/internal/guest/journal"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/guest/world"
	"github.com/zjrosen/iceguest/internal/log"
	"github.com/zjrosen/iceguest/internal/pubsub"
)

// DefaultQueueCapacity is the default buffer size for the event queue.
const DefaultQueueCapacity = 1000

var (
	// ErrQueueFull is returned when the event queue is at capacity.
	ErrQueueFull = errors.New("bridge queue full")
	// ErrNotRunning is returned when dispatching before Run or after shutdown.
	ErrNotRunning = errors.New("bridge not running")
)

// Journal receives every dispatched event with its outcome.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) error
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithQueueCapacity sets the event queue buffer capacity.
func WithQueueCapacity(capacity int) Option {
	return func(b *Bridge) {
		if capacity > 0 {
			b.queueCapacity = capacity
		}
	}
}

// WithMiddleware adds middleware applied to every dispatch.
// Middleware is applied in order: first middleware wraps outermost.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(b *Bridge) {
		b.middlewares = append(b.middlewares, middlewares...)
	}
}

// WithSandboxCache sets the cache sandbox items are kept in.
func WithSandboxCache(cache world.SandboxCache, ttl time.Duration) Option {
	return func(b *Bridge) {
		b.sandbox = cache
		b.sandboxTTL = ttl
	}
}

// WithBroker sets the broker state snapshots are published on.
func WithBroker(broker *pubsub.Broker[*machine.State]) Option {
	return func(b *Bridge) {
		b.broker = broker
	}
}

// WithJournal records every dispatch.
func WithJournal(j Journal) Option {
	return func(b *Bridge) {
		b.journal = j
	}
}

// WithInitialState starts from s instead of machine.Initial().
func WithInitialState(s *machine.State) Option {
	return func(b *Bridge) {
		if s != nil {
			b.state.Store(s)
		}
	}
}

// WithoutCheckInGate lets interactive events through before check-in.
func WithoutCheckInGate() Option {
	return func(b *Bridge) {
		b.gate = false
	}
}

// Bridge dispatches events into the state machine one at a time.
type Bridge struct {
	ice        *iceregistry.Registry
	els        *elementregistry.Registry
	sandbox    world.SandboxCache
	sandboxTTL time.Duration

	broker      *pubsub.Broker[*machine.State]
	journal     Journal
	middlewares []Middleware
	gate        bool
	handler     Handler

	state   atomic.Pointer[machine.State]
	pointer pointerTracker

	queue         chan queueItem
	queueCapacity int
	// queueMu orders sends against Drain closing the queue.
	queueMu     sync.RWMutex
	queueClosed bool

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	running  atomic.Bool
	started  atomic.Bool
	readyCh  chan struct{}
	readyMu  sync.Mutex
	readySet bool

	processedCount atomic.Int64
	droppedCount   atomic.Int64
	errorCount     atomic.Int64
}

// queueItem is an event or a pointer sample, with an optional result
// channel for the waiting variants.
type queueItem struct {
	env      *Envelope
	pointer  *PointerSample
	resultCh chan response
}

type response struct {
	results []*Result
	err     error
}

// New creates a bridge over the page registries. Without WithBroker a
// retaining broker is created.
func New(ice *iceregistry.Registry, els *elementregistry.Registry, opts ...Option) *Bridge {
	b := &Bridge{
		ice:           ice,
		els:           els,
		sandboxTTL:    cachemanager.DefaultExpiration,
		gate:          true,
		queueCapacity: DefaultQueueCapacity,
		readyCh:       make(chan struct{}),
	}
	b.state.Store(machine.Initial())
	for _, opt := range opts {
		opt(b)
	}
	if b.broker == nil {
		b.broker = pubsub.NewRetainingBroker[*machine.State]()
	}

	middlewares := b.middlewares
	if b.gate {
		middlewares = append(middlewares[:len(middlewares):len(middlewares)], NewCheckInGate(b.State))
	}
	b.handler = ChainMiddleware(HandlerFunc(b.reduce), middlewares...)
	b.queue = make(chan queueItem, b.queueCapacity)
	return b
}

// Run starts the dispatch loop.
// This method blocks until the context is cancelled or Stop() is called.
// Run can only be called once - subsequent calls return immediately.
func (b *Bridge) Run(ctx context.Context) {
	if !b.started.CompareAndSwap(false, true) {
		return
	}
	b.ctx, b.cancel = context.WithCancel(ctx)

	// Add to wait group BEFORE setting running to avoid race with Drain()
	b.wg.Add(1)
	b.running.Store(true)

	b.readyMu.Lock()
	if !b.readySet {
		close(b.readyCh)
		b.readySet = true
	}
	b.readyMu.Unlock()

	b.broker.Publish(pubsub.StateEvent, b.State())
	log.Debug(log.CatBridge, "dispatch loop started", "queue_capacity", b.queueCapacity)

	defer func() {
		b.running.Store(false)
		b.wg.Done()
	}()

	for {
		select {
		case <-b.ctx.Done():
			return
		case item, ok := <-b.queue:
			if !ok {
				return
			}
			b.processItem(item)
		}
	}
}

// WaitForReady blocks until the loop accepts events.
func (b *Bridge) WaitForReady(ctx context.Context) error {
	select {
	case <-b.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch queues ev for asynchronous processing.
func (b *Bridge) Dispatch(ev machine.Event, src Source) error {
	return b.submit(queueItem{env: NewEnvelope(ev, src)})
}

// DispatchAndWait queues ev and waits for its result.
func (b *Bridge) DispatchAndWait(ctx context.Context, ev machine.Event, src Source) (*Result, error) {
	results, err := b.submitAndWait(ctx, queueItem{env: NewEnvelope(ev, src)})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// MovePointer queues a pointer sample. Samples are ignored while no drag is
// in progress.
func (b *Bridge) MovePointer(x, y float64) error {
	return b.submit(queueItem{pointer: &PointerSample{X: x, Y: y}})
}

// MovePointerAndWait queues a pointer sample and returns the results of the
// events it was translated into.
func (b *Bridge) MovePointerAndWait(ctx context.Context, x, y float64) ([]*Result, error) {
	return b.submitAndWait(ctx, queueItem{pointer: &PointerSample{X: x, Y: y}})
}

func (b *Bridge) submit(item queueItem) error {
	b.queueMu.RLock()
	defer b.queueMu.RUnlock()

	if b.queueClosed || !b.running.Load() {
		return ErrNotRunning
	}
	select {
	case b.queue <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

func (b *Bridge) submitAndWait(ctx context.Context, item queueItem) ([]*Result, error) {
	item.resultCh = make(chan response, 1)
	if err := b.submit(item); err != nil {
		return nil, err
	}

	select {
	case resp := <-item.resultCh:
		return resp.results, resp.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.ctx.Done():
		return nil, context.Canceled
	}
}

// Stop cancels the loop and waits for it to exit. Queued events are not
// processed.
func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

// Drain processes every queued event, then stops.
func (b *Bridge) Drain() {
	b.queueMu.Lock()
	if b.queueClosed || !b.running.Load() {
		b.queueMu.Unlock()
		return
	}
	b.queueClosed = true
	b.running.Store(false)
	close(b.queue)
	b.queueMu.Unlock()

	b.wg.Wait()
}

// IsRunning reports whether the bridge accepts events.
func (b *Bridge) IsRunning() bool {
	return b.running.Load()
}

// State returns the current state snapshot.
func (b *Bridge) State() *machine.State {
	return b.state.Load()
}

// Broker returns the broker state snapshots are published on.
func (b *Bridge) Broker() *pubsub.Broker[*machine.State] {
	return b.broker
}

// ProcessedCount returns the number of events that reached the handler chain.
func (b *Bridge) ProcessedCount() int64 { return b.processedCount.Load() }

// DroppedCount returns the number of events dropped before the transition.
func (b *Bridge) DroppedCount() int64 { return b.droppedCount.Load() }

// ErrorCount returns the number of dispatches that failed.
func (b *Bridge) ErrorCount() int64 { return b.errorCount.Load() }

// QueueLength returns the number of pending items.
func (b *Bridge) QueueLength() int { return len(b.queue) }

func (b *Bridge) processItem(item queueItem) {
	var resp response
	if item.pointer != nil {
		for _, ev := range b.translate(b.ctx, *item.pointer) {
			result, err := b.process(NewEnvelope(ev, SourcePointer))
			if err != nil {
				resp.err = err
				break
			}
			resp.results = append(resp.results, result)
		}
	} else {
		result, err := b.process(item.env)
		resp.results, resp.err = []*Result{result}, err
	}

	if item.resultCh != nil {
		item.resultCh <- resp
		close(item.resultCh)
	}
}

// process runs one envelope through the handler chain and publishes the
// outcome.
func (b *Bridge) process(env *Envelope) (*Result, error) {
	result, err := b.handler.Handle(b.ctx, env)
	b.processedCount.Add(1)
	if err != nil {
		b.errorCount.Add(1)
		return nil, err
	}
	result.Event, result.Source = env.Event, env.Source

	switch {
	case result.Dropped:
		b.droppedCount.Add(1)
		b.broker.Publish(pubsub.DroppedEvent, result.After)
	case result.Changed():
		b.broker.Publish(pubsub.StateEvent, result.After)
	}
	if result.After.DragContext == nil {
		b.pointer = pointerTracker{}
	}
	b.record(env, result)
	return result, nil
}

// reduce is the innermost handler: host data first, then the transition
// over a fresh world snapshot.
func (b *Bridge) reduce(ctx context.Context, env *Envelope) (*Result, error) {
	b.applyHostData(ctx, env.Event)

	before := b.state.Load()
	w, release := world.Open(ctx, b.ice, b.els, b.sandbox)
	after := machine.Reduce(before, env.Event, w)
	release()

	b.state.Store(after)
	return &Result{Before: before, After: after}, nil
}

func (b *Bridge) record(env *Envelope, result *Result) {
	if b.journal == nil {
		return
	}
	payload, err := json.Marshal(env.Event)
	if err != nil {
		log.ErrorErr(log.CatJournal, "encode payload failed", err, "event", string(env.Event.Type()))
		payload = nil
	}
	entry := journal.Entry{
		EnvelopeID:   env.ID,
		Type:         string(env.Event.Type()),
		Source:       string(env.Source),
		Payload:      payload,
		StatusBefore: string(result.Before.Status),
		StatusAfter:  string(result.After.Status),
		Changed:      result.Changed(),
		Dropped:      result.Dropped,
		Reason:       result.Reason,
		At:           env.ReceivedAt,
	}
	if err := b.journal.Append(b.ctx, entry); err != nil {
		log.ErrorErr(log.CatJournal, "journal append failed", err, "envelope_id", env.ID)
	}
}
