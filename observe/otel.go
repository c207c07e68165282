package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/BaSui01/runtree/types"
)

const tracerName = "github.com/BaSui01/runtree/observe"

// TraceObserver maps workflow lifecycles onto OpenTelemetry spans: a span
// opens when a node transitions to running and ends on its terminal
// transition. Child spans are parented on the span of the nearest running
// ancestor when the status event carries a parent id.
type TraceObserver struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span // node id -> open span
}

// NewTraceObserver creates a TraceObserver using the given provider.
func NewTraceObserver(tp trace.TracerProvider) *TraceObserver {
	return &TraceObserver{
		tracer: tp.Tracer(tracerName),
		spans:  make(map[string]trace.Span),
	}
}

func (o *TraceObserver) OnEvent(ev types.Event) {
	switch ev.Type {
	case types.EventStatusChange:
		o.onStatusChange(ev)
	case types.EventError:
		o.onError(ev)
	}
}

func (o *TraceObserver) onStatusChange(ev types.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case ev.To == types.StatusRunning:
		ctx := context.Background()
		if parent, ok := o.spans[ev.ParentID]; ok {
			ctx = trace.ContextWithSpan(ctx, parent)
		}
		name := ev.Name
		if name == "" {
			name = ev.NodeID
		}
		_, span := o.tracer.Start(ctx, name,
			trace.WithAttributes(attribute.String("workflow.node_id", ev.NodeID)),
		)
		o.spans[ev.NodeID] = span

	case ev.To.Terminal():
		span, ok := o.spans[ev.NodeID]
		if !ok {
			return
		}
		delete(o.spans, ev.NodeID)
		switch ev.To {
		case types.StatusFailed:
			span.SetStatus(codes.Error, ev.Error)
		case types.StatusCancelled:
			span.SetStatus(codes.Error, "cancelled")
		default:
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

func (o *TraceObserver) onError(ev types.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if span, ok := o.spans[ev.NodeID]; ok {
		span.AddEvent("error", trace.WithAttributes(
			attribute.String("workflow.error", ev.Error),
		))
	}
}

func (o *TraceObserver) OnLog(entry types.LogEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if span, ok := o.spans[entry.NodeID]; ok {
		span.AddEvent(entry.Message, trace.WithAttributes(
			attribute.String("workflow.log_level", string(entry.Level)),
		))
	}
}

func (o *TraceObserver) OnStateSnapshot(*types.NodeRecord) {}

func (o *TraceObserver) OnTreeChanged(*types.NodeRecord) {}
