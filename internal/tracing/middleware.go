package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/iceguest/internal/guest/bridge"
)

// NewMiddleware creates bridge middleware that records a span per dispatch
// and stamps the envelope with its trace id. A nil tracer yields a
// pass-through.
func NewMiddleware(tracer trace.Tracer) bridge.Middleware {
	if tracer == nil {
		return func(next bridge.Handler) bridge.Handler { return next }
	}

	return func(next bridge.Handler) bridge.Handler {
		return bridge.HandlerFunc(func(ctx context.Context, env *bridge.Envelope) (*bridge.Result, error) {
			ctx, span := tracer.Start(ctx, SpanPrefixDispatch+string(env.Event.Type()),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithTimestamp(env.ReceivedAt),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				env.SetTraceID(sc.TraceID().String())
			}
			span.SetAttributes(
				attribute.String(AttrEnvelopeID, env.ID),
				attribute.String(AttrEventType, string(env.Event.Type())),
				attribute.String(AttrEventSource, string(env.Source)),
			)

			result, err := next.Handle(ctx, env)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return result, err
			}
			if result != nil {
				annotate(span, result)
			}
			span.SetStatus(codes.Ok, "")
			return result, nil
		})
	}
}

func annotate(span trace.Span, result *bridge.Result) {
	span.SetAttributes(
		attribute.String(AttrStatusBefore, string(result.Before.Status)),
		attribute.String(AttrStatusAfter, string(result.After.Status)),
		attribute.Bool(AttrChanged, result.Changed()),
		attribute.Bool(AttrDropped, result.Dropped),
	)
	if result.Dropped {
		span.SetAttributes(attribute.String(AttrDropReason, result.Reason))
	}

	before, after := result.Before.DragContext, result.After.DragContext
	if after != nil {
		span.SetAttributes(
			attribute.Int(AttrDropZones, len(after.DropZones)),
			attribute.Bool(AttrInvalidDrop, after.InvalidDrop),
		)
	}
	switch {
	case before == nil && after != nil:
		span.AddEvent(EventDragStarted, trace.WithAttributes(attribute.String(AttrStatusAfter, string(result.After.Status))))
	case before != nil && after == nil:
		span.AddEvent(EventDragEnded)
	}
}
