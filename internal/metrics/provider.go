package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceName = "flowloom-engine"

	metricExecutionsTotal   = "workflow.executions.total"
	metricExecutionDuration = "workflow.execution.duration"
	metricExecutionSuccess  = "workflow.executions.success.total"
	metricExecutionFailure  = "workflow.executions.failure.total"
	metricNodeExecutions    = "node.executions.total"
	metricNodeDuration      = "node.execution.duration"
	metricNodeSuccess       = "node.executions.success.total"
	metricNodeFailure       = "node.executions.failure.total"
	metricHTTPCalls         = "http.calls.total"
	metricHTTPDuration      = "http.call.duration"
	metricAgentIterations   = "agent.iterations.total"
	metricAgentToolCalls    = "agent.tool_calls.total"
)

// Provider owns the OpenTelemetry meter/tracer setup and the Prometheus
// exporter that backs it. One Provider is built at process startup and
// threaded through the driver, handlers, and agent loop.
type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider trace.TracerProvider
	meter          metric.Meter
	tracer         trace.Tracer

	executionsTotal   metric.Int64Counter
	executionDuration metric.Float64Histogram
	executionSuccess  metric.Int64Counter
	executionFailure  metric.Int64Counter
	nodeExecutions    metric.Int64Counter
	nodeDuration      metric.Float64Histogram
	nodeSuccess       metric.Int64Counter
	nodeFailure       metric.Int64Counter
	httpCalls         metric.Int64Counter
	httpDuration      metric.Float64Histogram
	agentIterations   metric.Int64Counter
	agentToolCalls    metric.Int64Counter

	mu sync.RWMutex
}

// Config controls which telemetry subsystems a Provider activates.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableTracing  bool
	EnableMetrics  bool
}

// DefaultConfig enables both tracing and metrics for a development environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:    defaultServiceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
	}
}

// NewProvider builds a Provider backed by a Prometheus metrics exporter and
// the process-global trace provider. Pass an otel SDK trace provider via
// otel.SetTracerProvider before calling this if spans must be exported
// anywhere other than the default no-op sink.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: build resource: %w", err)
	}

	if cfg.EnableMetrics {
		if err := p.initMetrics(res); err != nil {
			return nil, fmt.Errorf("metrics: init metrics: %w", err)
		}
	}

	if cfg.EnableTracing {
		p.initTracing()
	}

	return p, nil
}

func (p *Provider) initMetrics(res *resource.Resource) error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("create prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter(defaultServiceName)

	return p.createInstruments()
}

func (p *Provider) initTracing() {
	p.tracerProvider = otel.GetTracerProvider()
	p.tracer = p.tracerProvider.Tracer(defaultServiceName)
}

func (p *Provider) createInstruments() error {
	var err error

	if p.executionsTotal, err = p.meter.Int64Counter(metricExecutionsTotal,
		metric.WithDescription("Total number of workflow executions started")); err != nil {
		return err
	}
	if p.executionDuration, err = p.meter.Float64Histogram(metricExecutionDuration,
		metric.WithDescription("Workflow execution duration"), metric.WithUnit("ms")); err != nil {
		return err
	}
	if p.executionSuccess, err = p.meter.Int64Counter(metricExecutionSuccess,
		metric.WithDescription("Total number of workflow executions that completed")); err != nil {
		return err
	}
	if p.executionFailure, err = p.meter.Int64Counter(metricExecutionFailure,
		metric.WithDescription("Total number of workflow executions that failed")); err != nil {
		return err
	}
	if p.nodeExecutions, err = p.meter.Int64Counter(metricNodeExecutions,
		metric.WithDescription("Total number of node executions")); err != nil {
		return err
	}
	if p.nodeDuration, err = p.meter.Float64Histogram(metricNodeDuration,
		metric.WithDescription("Node execution duration"), metric.WithUnit("ms")); err != nil {
		return err
	}
	if p.nodeSuccess, err = p.meter.Int64Counter(metricNodeSuccess,
		metric.WithDescription("Total number of successful node executions")); err != nil {
		return err
	}
	if p.nodeFailure, err = p.meter.Int64Counter(metricNodeFailure,
		metric.WithDescription("Total number of failed node executions")); err != nil {
		return err
	}
	if p.httpCalls, err = p.meter.Int64Counter(metricHTTPCalls,
		metric.WithDescription("Total number of outbound HTTP calls")); err != nil {
		return err
	}
	if p.httpDuration, err = p.meter.Float64Histogram(metricHTTPDuration,
		metric.WithDescription("Outbound HTTP call duration"), metric.WithUnit("ms")); err != nil {
		return err
	}
	if p.agentIterations, err = p.meter.Int64Counter(metricAgentIterations,
		metric.WithDescription("Total number of agent loop iterations")); err != nil {
		return err
	}
	if p.agentToolCalls, err = p.meter.Int64Counter(metricAgentToolCalls,
		metric.WithDescription("Total number of agent tool calls")); err != nil {
		return err
	}

	return nil
}

// Tracer returns the shared tracer. Safe to call before Provider is fully
// initialized; returns nil if tracing is disabled.
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracer
}

// Meter returns the shared meter, or nil if metrics are disabled.
func (p *Provider) Meter() metric.Meter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meter
}

// RecordExecution records the outcome of one workflow run.
func (p *Provider) RecordExecution(ctx context.Context, workflowID string, duration time.Duration, success bool, nodesExecuted int) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("workflow.id", workflowID),
		attribute.Int("nodes.executed", nodesExecuted),
	)
	p.executionsTotal.Add(ctx, 1, attrs)
	p.executionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if success {
		p.executionSuccess.Add(ctx, 1, attrs)
	} else {
		p.executionFailure.Add(ctx, 1, attrs)
	}
}

// RecordNode records the outcome of one node execution.
func (p *Provider) RecordNode(ctx context.Context, nodeID, nodeKind string, duration time.Duration, success bool) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("node.id", nodeID),
		attribute.String("node.kind", nodeKind),
	)
	p.nodeExecutions.Add(ctx, 1, attrs)
	p.nodeDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if success {
		p.nodeSuccess.Add(ctx, 1, attrs)
	} else {
		p.nodeFailure.Add(ctx, 1, attrs)
	}
}

// RecordHTTPCall records one outbound HTTP request made by the http-request
// node or any capability client that proxies through plain HTTP.
func (p *Provider) RecordHTTPCall(ctx context.Context, method, url string, statusCode int, duration time.Duration) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
		attribute.Int("http.status_code", statusCode),
	)
	p.httpCalls.Add(ctx, 1, attrs)
	p.httpDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordAgentIteration records one pass of the ai-agent tool-calling loop.
func (p *Provider) RecordAgentIteration(ctx context.Context, nodeID string, toolCalls int) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("node.id", nodeID))
	p.agentIterations.Add(ctx, 1, attrs)
	if toolCalls > 0 {
		p.agentToolCalls.Add(ctx, int64(toolCalls), attrs)
	}
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("metrics: shutdown meter provider: %w", err)
		}
	}
	return nil
}
