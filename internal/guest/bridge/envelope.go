package bridge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/iceguest/internal/guest/machine"
)

// Source identifies where an event came from.
type Source string

const (
	// SourceHost is the authoring host application.
	SourceHost Source = "host"
	// SourcePointer is the pointer translator.
	SourcePointer Source = "pointer"
	// SourceScript is a replayed scenario.
	SourceScript Source = "script"
	// SourceLocal is the terminal overlay.
	SourceLocal Source = "local"
)

// Envelope carries one event through the dispatch pipeline.
type Envelope struct {
	ID         string
	Event      machine.Event
	Source     Source
	ReceivedAt time.Time

	traceID string
}

// NewEnvelope wraps ev with a fresh id.
func NewEnvelope(ev machine.Event, src Source) *Envelope {
	return &Envelope{
		ID:         uuid.NewString(),
		Event:      ev,
		Source:     src,
		ReceivedAt: time.Now(),
	}
}

// TraceID returns the trace the dispatch was recorded under, if any.
func (e *Envelope) TraceID() string { return e.traceID }

// SetTraceID is called by tracing middleware.
func (e *Envelope) SetTraceID(id string) { e.traceID = id }

// Result is the outcome of one dispatch.
type Result struct {
	// Event and Source are set by the bridge once the handler chain returns.
	Event  machine.Event
	Source Source
	Before *machine.State
	After  *machine.State
	// Dropped is set when the event never reached the state machine.
	Dropped bool
	Reason  string
}

// Changed reports whether the transition produced a new state.
func (r *Result) Changed() bool {
	return r != nil && !r.Dropped && r.Before != r.After
}

// Handler processes one envelope.
type Handler interface {
	Handle(ctx context.Context, env *Envelope) (*Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env *Envelope) (*Result, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, env *Envelope) (*Result, error) {
	return f(ctx, env)
}
