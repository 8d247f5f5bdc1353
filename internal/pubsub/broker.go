package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const defaultBufferSize = 64

// Broker is a generic pub/sub event broker. Publishing never blocks: events
// are skipped for subscribers whose buffer is full.
type Broker[T any] struct {
	subs       map[chan Event[T]]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int

	// seq is only advanced under mu, so every subscriber sees ascending Seq.
	seq     uint64
	skipped atomic.Int64

	retain bool
	last   *Event[T]
}

// NewBroker creates a new broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker with a custom buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// NewRetainingBroker creates a broker that remembers the last published event
// and delivers it to every new subscriber first. Late subscribers of state
// snapshots start from the current state.
func NewRetainingBroker[T any]() *Broker[T] {
	b := NewBroker[T]()
	b.retain = true
	return b
}

var (
	_ Subscriber[struct{}] = (*Broker[struct{}])(nil)
	_ Publisher[struct{}]  = (*Broker[struct{}])(nil)
)

// Subscribe creates a new subscription channel.
// The channel is automatically closed when ctx is cancelled.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.bufferSize)
	if b.last != nil {
		sub <- *b.last
	}
	b.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return // Already closed
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends an event to all subscribers.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	b.seq++
	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Seq:       b.seq,
		Timestamp: time.Now(),
	}
	if b.retain {
		b.last = &event
	}

	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			b.skipped.Add(1)
		}
	}
}

// Skipped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broker[T]) Skipped() int64 {
	return b.skipped.Load()
}

// Last returns the retained event, if any.
func (b *Broker[T]) Last() (Event[T], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return Event[T]{}, false
	}
	return *b.last, true
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return // Already closed
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
