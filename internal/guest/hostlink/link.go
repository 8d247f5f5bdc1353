// Package hostlink connects the guest to the authoring host. Host messages
// arrive as {type, payload} objects and are dispatched into the bridge;
// every new state is sent back to the host.
package hostlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-viper/mapstructure/v2"

	"github.com/zjrosen/iceguest/internal/guest/bridge"
	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/log"
	"github.com/zjrosen/iceguest/internal/pubsub"
)

// Socket event names.
const (
	// EventHost carries host to guest messages.
	EventHost = "host:message"
	// EventGuest carries guest to host messages.
	EventGuest = "guest:message"
)

// Guest message types.
const (
	MessageGuestCheckIn  = "guestCheckIn"
	MessageGuestCheckOut = "guestCheckOut"
	MessageGuestState    = "guestStateChanged"
	MessageEventDropped  = "guestEventDropped"
)

// MessagePointerMove is a host message carrying a raw pointer sample
// {x, y} in viewport coordinates.
const MessagePointerMove = "pointerMove"

// ErrMalformedMessage is returned for host messages without a type.
var ErrMalformedMessage = errors.New("malformed host message")

// Message is the envelope exchanged with the host.
type Message struct {
	Type    string `json:"type" mapstructure:"type"`
	Payload any    `json:"payload,omitempty" mapstructure:"payload"`
}

// Transport is a connected message channel to the host.
type Transport interface {
	On(event string, fn func(args ...any))
	Emit(event string, args ...any)
	Close() error
}

// Dispatcher takes decoded host input. *bridge.Bridge implements it.
type Dispatcher interface {
	Dispatch(ev machine.Event, src bridge.Source) error
	MovePointer(x, y float64) error
}

// Link relays between a transport and the bridge.
type Link struct {
	transport Transport
	dispatch  Dispatcher
	states    *pubsub.Broker[*machine.State]
	location  string

	received atomic.Int64
	rejected atomic.Int64
}

// New creates a link. location identifies the preview in the check-in.
func New(t Transport, d Dispatcher, states *pubsub.Broker[*machine.State], location string) *Link {
	return &Link{transport: t, dispatch: d, states: states, location: location}
}

// Run checks in with the host, then relays in both directions until ctx
// is done. It checks out before returning.
func (l *Link) Run(ctx context.Context) error {
	l.transport.On(EventHost, l.receive)
	l.send(Message{Type: MessageGuestCheckIn, Payload: map[string]any{"location": l.location}})
	log.Info(log.CatHost, "checked in with host", "location", l.location)

	updates := l.states.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			l.checkOut()
			return nil
		case ev, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					l.checkOut()
				}
				return nil
			}
			switch ev.Type {
			case pubsub.StateEvent:
				l.send(Message{Type: MessageGuestState, Payload: ev.Payload})
			case pubsub.DroppedEvent:
				l.send(Message{Type: MessageEventDropped, Payload: map[string]any{"status": ev.Payload.Status}})
			}
		}
	}
}

func (l *Link) checkOut() {
	l.send(Message{Type: MessageGuestCheckOut})
	log.Info(log.CatHost, "checked out", "received", l.received.Load(), "rejected", l.rejected.Load())
}

// Received returns the number of host messages accepted.
func (l *Link) Received() int64 { return l.received.Load() }

// Rejected returns the number of host messages that could not be decoded
// or dispatched.
func (l *Link) Rejected() int64 { return l.rejected.Load() }

func (l *Link) send(m Message) {
	l.transport.Emit(EventGuest, m)
}

func (l *Link) receive(args ...any) {
	if len(args) == 0 {
		l.reject("", ErrMalformedMessage)
		return
	}
	msg, err := DecodeMessage(args[0])
	if err != nil {
		l.reject("", err)
		return
	}
	if err := l.route(msg); err != nil {
		l.reject(msg.Type, err)
		return
	}
	l.received.Add(1)
}

func (l *Link) route(msg Message) error {
	if msg.Type == MessagePointerMove {
		var p struct {
			X float64 `mapstructure:"x"`
			Y float64 `mapstructure:"y"`
		}
		if err := mapstructure.WeakDecode(msg.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		return l.dispatch.MovePointer(p.X, p.Y)
	}

	ev, err := machine.DecodeEvent(machine.EventType(msg.Type), msg.Payload)
	if err != nil {
		return err
	}
	return l.dispatch.Dispatch(ev, bridge.SourceHost)
}

func (l *Link) reject(msgType string, err error) {
	l.rejected.Add(1)
	log.ErrorErr(log.CatHost, "host message rejected", err, "type", msgType)
}

// DecodeMessage reads a host message given as a decoded JSON object, a JSON
// string or raw JSON bytes.
func DecodeMessage(raw any) (Message, error) {
	var msg Message
	switch v := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
	case []byte:
		if err := json.Unmarshal(v, &msg); err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
	default:
		if err := mapstructure.Decode(raw, &msg); err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
	}
	if msg.Type == "" {
		return Message{}, ErrMalformedMessage
	}
	return msg, nil
}
