package tracing

// Span attribute keys of a dispatch span.
const (
	AttrEnvelopeID   = "envelope.id"
	AttrEventType    = "event.type"
	AttrEventSource  = "event.source"
	AttrStatusBefore = "state.status.before"
	AttrStatusAfter  = "state.status.after"
	AttrChanged      = "state.changed"
	AttrDropped      = "event.dropped"
	AttrDropReason   = "event.drop_reason"
	AttrDropZones    = "drag.drop_zones"
	AttrInvalidDrop  = "drag.invalid_drop"
)

// SpanPrefixDispatch prefixes the event type in span names.
const SpanPrefixDispatch = "dispatch."

// Span event names.
const (
	EventDragStarted = "drag.started"
	EventDragEnded   = "drag.ended"
)
