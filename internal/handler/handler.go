// Package handler implements the node registry (spec §4.3): a kind→Handler
// strategy map plus the concrete handlers for every required node kind.
// Grounded on the teacher's pkg/executor (Registry + NodeExecutor strategy
// pattern), generalised from the teacher's fixed NodeType enum to this
// engine's open string-keyed kind space and Value-typed input/output.
package handler

import (
	"context"
	"sync"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/config"
	"github.com/flowloom/engine/internal/logging"
	"github.com/flowloom/engine/internal/metrics"
	"github.com/flowloom/engine/internal/observer"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// Capabilities bundles the external interfaces (spec §6) a Handler may
// call into. A host wires one concrete implementation per field; any nil
// field is surfaced as a ConfigError by the handler that needs it rather
// than panicking.
type Capabilities struct {
	Store      capability.Store
	HTTPClient capability.HttpClient
	LlmClient  capability.LlmClient
	McpClient  capability.McpClient
	JsRunner   capability.JsRunner
	PyRunner   capability.PyRunner
	Clock      capability.Clock
	FeedParser capability.FeedParser
	FileIO     capability.FileIO
}

// EngineContext is the per-invocation bundle a Handler receives: the wired
// Capabilities, the owning workflow's full node/edge list (needed by
// ai-agent to resolve its attached tool nodes), identifiers for logging and
// metrics correlation, and the cancellation-carrying context.Context.
type EngineContext struct {
	ctx context.Context

	Capabilities Capabilities
	Workflow     types.Workflow
	Config       *config.Config

	ExecutionID string
	WorkflowID  string

	Logger    *logging.Logger
	Observers *observer.Manager
	Metrics   *metrics.Provider
}

// NewEngineContext builds an EngineContext bound to ctx.
func NewEngineContext(ctx context.Context, caps Capabilities, workflow types.Workflow, cfg *config.Config) EngineContext {
	if cfg == nil {
		cfg = config.Default()
	}
	return EngineContext{
		ctx:          ctx,
		Capabilities: caps,
		Workflow:     workflow,
		Config:       cfg,
		WorkflowID:   workflow.ID,
		Logger:       logging.FromContext(ctx),
		Observers:    observer.NewManager(),
	}
}

// Context returns the cancellation-carrying context.Context handlers must
// propagate to any I/O they perform.
func (e EngineContext) Context() context.Context { return e.ctx }

// WithContext returns a copy of e bound to a different context, leaving the
// original value unchanged.
func (e EngineContext) WithContext(ctx context.Context) EngineContext {
	e.ctx = ctx
	return e
}

// Emit fans an AuditEvent out through the registered observers, a no-op if
// Observers is nil.
func (e EngineContext) Emit(event observer.AuditEvent) {
	if e.Observers == nil {
		return
	}
	event.ExecutionID = e.ExecutionID
	event.WorkflowID = e.WorkflowID
	e.Observers.Emit(e.ctx, event)
}

// Handler executes one node kind. Implementations receive the node's
// resolved input Value and return the node's output Value (or an error,
// which the driver records as a failed NodeResult per spec §7).
type Handler interface {
	Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error)
	Kind() string
}

// Registry maps kind strings to Handlers. Lookup miss falls back to the
// unknown-kind handler (spec §4.3: unknown kinds are a soft no-op, not an
// error) rather than failing the way the teacher's executor.Registry does
// for its closed NodeType enum.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	unknown  Handler
}

// NewRegistry returns an empty Registry defaulting unresolved kinds to
// unknownHandler.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		unknown:  unknownHandler{},
	}
}

// Register adds h under h.Kind(), replacing any previous registration for
// that kind.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Kind()] = h
}

// Execute dispatches to the handler registered for node.Kind, or to the
// unknown-kind handler if none is registered.
func (r *Registry) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	r.mu.RLock()
	h, ok := r.handlers[node.Kind]
	r.mu.RUnlock()
	if !ok {
		h = r.unknown
	}
	return h.Execute(ectx, node, input)
}

// Has reports whether a handler is registered for kind.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[kind]
	return ok
}

// configString reads a string field from node.Config; the bool is false
// when the field is absent or not a string.
func configString(cfg value.Value, key string) (string, bool) {
	v, ok := cfg.Get(key)
	if !ok || !v.IsString() {
		return "", false
	}
	return v.Str(), true
}

func configStringDefault(cfg value.Value, key, def string) string {
	if s, ok := configString(cfg, key); ok {
		return s
	}
	return def
}

func configBool(cfg value.Value, key string) bool {
	v, ok := cfg.Get(key)
	return ok && v.IsBool() && v.Bool()
}

func configNumber(cfg value.Value, key string, def float64) float64 {
	v, ok := cfg.Get(key)
	if !ok || !v.IsNumber() {
		return def
	}
	return v.Number()
}

