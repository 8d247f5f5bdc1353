package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/iceguest/internal/config"
	"github.com/zjrosen/iceguest/internal/guest/bridge"
	"github.com/zjrosen/iceguest/internal/guest/machine"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")
	p, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "file", FilePath: path})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "dispatch.mouseover")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 1)
	require.Equal(t, "dispatch.mouseover", records[0].Name)
}

func TestNewProvider_NoExporter(t *testing.T) {
	p, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	require.True(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(config.TracingConfig{Enabled: true, Exporter: "jaeger"})
	require.ErrorContains(t, err, "unsupported exporter type")
}

func TestFileExporter_AppendsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"existing"}`+"\n"), 0600))

	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	start := time.Now()
	stub := tracetest.SpanStub{
		Name:       "dispatch.dragstart",
		StartTime:  start,
		EndTime:    start.Add(1500 * time.Microsecond),
		Attributes: []attribute.KeyValue{attribute.String(AttrEventType, "dragstart")},
		Status:     sdktrace.Status{Code: codes.Error, Description: "boom"},
	}
	require.NoError(t, exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))

	records := readRecords(t, path)
	require.Len(t, records, 2)
	rec := records[1]
	require.Equal(t, "dispatch.dragstart", rec.Name)
	require.Equal(t, "ERROR", rec.Status)
	require.Equal(t, "boom", rec.StatusMsg)
	require.Equal(t, "UNSPECIFIED", rec.Kind)
	require.InDelta(t, 1.5, rec.DurationMs, 0.001)
	require.Equal(t, "dragstart", rec.Attributes[AttrEventType])

	err = exp.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()})
	require.Error(t, err, "export after shutdown")
}

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []SpanRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, sc.Err())
	return out
}

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	rec := tracetest.NewSpanRecorder()
	return rec, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
}

func TestMiddleware_RecordsDispatch(t *testing.T) {
	rec, tp := newRecorder()
	before := machine.Initial()
	after := machine.Initial()
	after.Status = machine.StatusSortingComponent
	after.DragContext = &machine.DragContext{InvalidDrop: true}

	next := bridge.HandlerFunc(func(context.Context, *bridge.Envelope) (*bridge.Result, error) {
		return &bridge.Result{Before: before, After: after}, nil
	})
	env := bridge.NewEnvelope(machine.DragStart{Record: 4}, bridge.SourcePointer)

	_, err := NewMiddleware(tp.Tracer("test"))(next).Handle(context.Background(), env)
	require.NoError(t, err)
	require.NotEmpty(t, env.TraceID())

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "dispatch.dragstart", span.Name())
	require.Equal(t, codes.Ok, span.Status().Code)
	require.Equal(t, env.TraceID(), span.SpanContext().TraceID().String())

	attrs := attributeMap(span.Attributes())
	require.Equal(t, env.ID, attrs[AttrEnvelopeID])
	require.Equal(t, "pointer", attrs[AttrEventSource])
	require.Equal(t, "LISTENING", attrs[AttrStatusBefore])
	require.Equal(t, "SORTING_COMPONENT", attrs[AttrStatusAfter])
	require.Equal(t, true, attrs[AttrChanged])
	require.Equal(t, true, attrs[AttrInvalidDrop])
	require.Equal(t, int64(0), attrs[AttrDropZones])

	require.Len(t, span.Events(), 1)
	require.Equal(t, EventDragStarted, span.Events()[0].Name)
}

func TestMiddleware_RecordsDrop(t *testing.T) {
	rec, tp := newRecorder()
	s := machine.Initial()
	next := bridge.HandlerFunc(func(context.Context, *bridge.Envelope) (*bridge.Result, error) {
		return &bridge.Result{Before: s, After: s, Dropped: true, Reason: bridge.ReasonNotCheckedIn}, nil
	})

	_, err := NewMiddleware(tp.Tracer("test"))(next).Handle(context.Background(), bridge.NewEnvelope(machine.MouseOver{}, bridge.SourceHost))
	require.NoError(t, err)

	attrs := attributeMap(rec.Ended()[0].Attributes())
	require.Equal(t, true, attrs[AttrDropped])
	require.Equal(t, bridge.ReasonNotCheckedIn, attrs[AttrDropReason])
	require.Equal(t, false, attrs[AttrChanged])
}

func TestMiddleware_RecordsError(t *testing.T) {
	rec, tp := newRecorder()
	boom := errors.New("boom")
	next := bridge.HandlerFunc(func(context.Context, *bridge.Envelope) (*bridge.Result, error) {
		return nil, boom
	})

	_, err := NewMiddleware(tp.Tracer("test"))(next).Handle(context.Background(), bridge.NewEnvelope(machine.Scrolling{}, bridge.SourceHost))
	require.ErrorIs(t, err, boom)

	span := rec.Ended()[0]
	require.Equal(t, codes.Error, span.Status().Code)
	require.Equal(t, "boom", span.Status().Description)
}

func TestMiddleware_NilTracer(t *testing.T) {
	called := false
	next := bridge.HandlerFunc(func(context.Context, *bridge.Envelope) (*bridge.Result, error) {
		called = true
		return nil, nil
	})
	env := bridge.NewEnvelope(machine.Scrolling{}, bridge.SourceHost)

	_, err := NewMiddleware(nil)(next).Handle(context.Background(), env)
	require.NoError(t, err)
	require.True(t, called)
	require.Empty(t, env.TraceID())
}
