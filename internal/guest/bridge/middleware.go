package bridge

import (
	"context"
	"time"

	"github.com/zjrosen/iceguest/internal/guest/machine"
	"github.com/zjrosen/iceguest/internal/log"
)

// Middleware wraps a Handler to add behavior around dispatch.
type Middleware func(Handler) Handler

// ChainMiddleware applies middlewares to a handler in reverse order.
// The first middleware in the list will be the outermost wrapper.
// For example: ChainMiddleware(handler, logging, tracing, gate)
// Results in: logging(tracing(gate(handler)))
func ChainMiddleware(handler Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// NewLoggingMiddleware logs every dispatch with its outcome.
func NewLoggingMiddleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, env *Envelope) (*Result, error) {
			start := time.Now()
			result, err := next.Handle(ctx, env)
			duration := time.Since(start)

			switch {
			case err != nil:
				log.Error(log.CatBridge, "dispatch failed",
					"envelope_id", env.ID,
					"event", string(env.Event.Type()),
					"source", string(env.Source),
					"trace_id", env.TraceID(),
					"duration", duration,
					"error", err.Error(),
				)
			case result != nil && result.Dropped:
				log.Info(log.CatBridge, "event dropped",
					"envelope_id", env.ID,
					"event", string(env.Event.Type()),
					"source", string(env.Source),
					"reason", result.Reason,
				)
			default:
				fields := []any{
					"envelope_id", env.ID,
					"event", string(env.Event.Type()),
					"source", string(env.Source),
					"trace_id", env.TraceID(),
					"duration", duration,
				}
				if result != nil {
					fields = append(fields,
						"status", string(result.After.Status),
						"changed", result.Changed(),
					)
				}
				log.Debug(log.CatBridge, "dispatched", fields...)
			}
			return result, err
		})
	}
}

// Reasons an event is dropped by the check-in gate.
const (
	ReasonNotCheckedIn = "host not checked in"
	ReasonEditModeOff  = "edit mode off"
)

// NewCheckInGate drops interactive events until the host checked in and
// while edit mode is off. current returns the state the event would apply to.
func NewCheckInGate(current func() *machine.State) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, env *Envelope) (*Result, error) {
			if !machine.IsInteractive(env.Event) {
				return next.Handle(ctx, env)
			}
			s := current()
			reason := ""
			switch {
			case !s.HostCheckedIn:
				reason = ReasonNotCheckedIn
			case !s.EditMode:
				reason = ReasonEditModeOff
			default:
				return next.Handle(ctx, env)
			}
			return &Result{Before: s, After: s, Dropped: true, Reason: reason}, nil
		})
	}
}
