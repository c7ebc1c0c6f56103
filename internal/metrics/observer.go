package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowloom/engine/internal/observer"
)

// TelemetryObserver implements observer.Observer, turning AuditEvents into
// Provider metric recordings and trace spans. One instance is registered
// per process; it tracks in-flight spans per execution/node pair so that
// node spans nest under their execution span.
type TelemetryObserver struct {
	provider *Provider

	mu            sync.Mutex
	executionSpan map[string]trace.Span
	executionFrom map[string]time.Time
	nodeSpan      map[string]trace.Span
	nodeFrom      map[string]time.Time
}

// NewTelemetryObserver returns an Observer that records into provider.
func NewTelemetryObserver(provider *Provider) *TelemetryObserver {
	return &TelemetryObserver{
		provider:      provider,
		executionSpan: make(map[string]trace.Span),
		executionFrom: make(map[string]time.Time),
		nodeSpan:      make(map[string]trace.Span),
		nodeFrom:      make(map[string]time.Time),
	}
}

func nodeSpanKey(executionID, nodeID string) string { return executionID + "/" + nodeID }

// OnEvent implements observer.Observer.
func (o *TelemetryObserver) OnEvent(ctx context.Context, event observer.AuditEvent) {
	switch event.Type {
	case observer.EventExecutionStart:
		o.onExecutionStart(ctx, event)
	case observer.EventExecutionEnd:
		o.onExecutionEnd(ctx, event)
	case observer.EventNodeStart:
		o.onNodeStart(ctx, event)
	case observer.EventNodeSuccess:
		o.onNodeEnd(ctx, event, true)
	case observer.EventNodeFailure:
		o.onNodeEnd(ctx, event, false)
	case observer.EventAgentIteration:
		o.onAgentIteration(ctx, event)
	}
}

func (o *TelemetryObserver) onExecutionStart(ctx context.Context, event observer.AuditEvent) {
	if o.provider.Tracer() == nil {
		return
	}
	_, span := o.provider.Tracer().Start(ctx, "workflow.execute",
		trace.WithAttributes(
			attribute.String("workflow.id", event.WorkflowID),
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	o.mu.Lock()
	o.executionSpan[event.ExecutionID] = span
	o.executionFrom[event.ExecutionID] = event.Timestamp
	o.mu.Unlock()
}

func (o *TelemetryObserver) onExecutionEnd(ctx context.Context, event observer.AuditEvent) {
	o.mu.Lock()
	start, hasStart := o.executionFrom[event.ExecutionID]
	span, hasSpan := o.executionSpan[event.ExecutionID]
	delete(o.executionFrom, event.ExecutionID)
	delete(o.executionSpan, event.ExecutionID)
	o.mu.Unlock()

	var duration time.Duration
	if hasStart {
		duration = event.Timestamp.Sub(start)
	}

	nodesExecuted := 0
	if v, ok := event.Metadata["nodes_executed"]; ok {
		if n, ok := v.(int); ok {
			nodesExecuted = n
		}
	}

	success := event.Err == nil
	o.provider.RecordExecution(ctx, event.WorkflowID, duration, success, nodesExecuted)

	if hasSpan {
		if event.Err != nil {
			span.RecordError(event.Err)
			span.SetStatus(codes.Error, event.Err.Error())
		} else {
			span.SetStatus(codes.Ok, "execution completed")
		}
		span.End()
	}
}

func (o *TelemetryObserver) onNodeStart(ctx context.Context, event observer.AuditEvent) {
	if o.provider.Tracer() == nil {
		return
	}

	o.mu.Lock()
	parent, hasParent := o.executionSpan[event.ExecutionID]
	o.mu.Unlock()

	spanCtx := ctx
	if hasParent {
		spanCtx = trace.ContextWithSpan(ctx, parent)
	}

	_, span := o.provider.Tracer().Start(spanCtx, "node.execute",
		trace.WithAttributes(
			attribute.String("node.id", event.NodeID),
			attribute.String("node.kind", event.NodeKind),
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	key := nodeSpanKey(event.ExecutionID, event.NodeID)
	o.mu.Lock()
	o.nodeSpan[key] = span
	o.nodeFrom[key] = event.Timestamp
	o.mu.Unlock()
}

func (o *TelemetryObserver) onNodeEnd(ctx context.Context, event observer.AuditEvent, success bool) {
	key := nodeSpanKey(event.ExecutionID, event.NodeID)

	o.mu.Lock()
	start, hasStart := o.nodeFrom[key]
	span, hasSpan := o.nodeSpan[key]
	delete(o.nodeFrom, key)
	delete(o.nodeSpan, key)
	o.mu.Unlock()

	duration := event.Elapsed
	if duration == 0 && hasStart {
		duration = event.Timestamp.Sub(start)
	}

	o.provider.RecordNode(ctx, event.NodeID, event.NodeKind, duration, success)

	if hasSpan {
		if event.Err != nil {
			span.RecordError(event.Err)
			span.SetStatus(codes.Error, event.Err.Error())
		} else {
			span.SetStatus(codes.Ok, "node completed")
		}
		span.End()
	}
}

func (o *TelemetryObserver) onAgentIteration(ctx context.Context, event observer.AuditEvent) {
	toolCalls := 0
	if v, ok := event.Metadata["tool_calls"]; ok {
		if n, ok := v.(int); ok {
			toolCalls = n
		}
	}
	o.provider.RecordAgentIteration(ctx, event.NodeID, toolCalls)
}
