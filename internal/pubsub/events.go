// Package pubsub fans events out to subscribers: state snapshots from the
// bridge, log lines from the logger.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// StateEvent carries a new state snapshot.
	StateEvent EventType = "state"
	// DroppedEvent reports input that never reached the state machine.
	DroppedEvent EventType = "dropped"
	// LogEvent carries a formatted log line.
	LogEvent EventType = "log"
)

// Event is one published payload. Seq numbers the events of a broker from
// 1; a gap on a subscription means events were skipped while its buffer was
// full.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Seq       uint64
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
