package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// maxBatch bounds how many queued events a single Listen drains.
const maxBatch = 64

// Batch is the message a Listener delivers: the event it waited for followed
// by every event already queued behind it, oldest first. A burst of pointer
// moves becomes one render instead of one per snapshot.
type Batch[T any] struct {
	Events []Event[T]
	// Missed counts events the subscription skipped since the previous batch.
	Missed int
}

// Latest returns the payload of the newest event of type t.
func (b Batch[T]) Latest(t EventType) (T, bool) {
	for i := len(b.Events) - 1; i >= 0; i-- {
		if b.Events[i].Type == t {
			return b.Events[i].Payload, true
		}
	}
	var zero T
	return zero, false
}

// Count returns how many events of type t the batch holds.
func (b Batch[T]) Count(t EventType) int {
	n := 0
	for _, ev := range b.Events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// Listener feeds a subscription into the Bubble Tea update loop. Call Listen
// again after handling each Batch to keep receiving.
type Listener[T any] struct {
	ctx     context.Context
	ch      <-chan Event[T]
	lastSeq uint64
}

// NewListener subscribes for as long as ctx lives.
func NewListener[T any](ctx context.Context, sub Subscriber[T]) *Listener[T] {
	return &Listener[T]{ctx: ctx, ch: sub.Subscribe(ctx)}
}

// Listen returns a command that blocks for the next event and returns it as
// a Batch together with whatever else is already buffered. It returns nil
// once ctx is done or the subscription is closed.
func (l *Listener[T]) Listen() tea.Cmd {
	ctx, ch := l.ctx, l.ch
	return func() tea.Msg {
		var first Event[T]
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			first = ev
		}
		b := drain(ch, Batch[T]{Events: []Event[T]{first}})
		l.countMissed(&b)
		return b
	}
}

// countMissed compares Seq against the last delivered event. Listen calls
// run one at a time, so lastSeq needs no lock.
func (l *Listener[T]) countMissed(b *Batch[T]) {
	for _, ev := range b.Events {
		if ev.Seq == 0 {
			continue
		}
		if l.lastSeq != 0 && ev.Seq > l.lastSeq+1 {
			b.Missed += int(ev.Seq - l.lastSeq - 1)
		}
		l.lastSeq = ev.Seq
	}
}

func drain[T any](ch <-chan Event[T], b Batch[T]) Batch[T] {
	for len(b.Events) < maxBatch {
		select {
		case ev, ok := <-ch:
			if !ok {
				return b
			}
			b.Events = append(b.Events, ev)
		default:
			return b
		}
	}
	return b
}
