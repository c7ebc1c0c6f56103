package observer

import (
	"context"
	"sync"
	"time"
)

// EventType names the stage of execution an AuditEvent reports.
type EventType string

const (
	EventExecutionStart  EventType = "execution_start"
	EventExecutionEnd    EventType = "execution_end"
	EventExecutionWait   EventType = "execution_wait"
	EventExecutionResume EventType = "execution_resume"
	EventNodeStart       EventType = "node_start"
	EventNodeSuccess     EventType = "node_success"
	EventNodeFailure     EventType = "node_failure"
	EventAgentIteration  EventType = "agent_iteration"
)

// AuditEvent is one observable moment in an execution's lifecycle.
type AuditEvent struct {
	Type        EventType
	Timestamp   time.Time
	ExecutionID string
	WorkflowID  string
	NodeID      string
	NodeKind    string
	Elapsed     time.Duration
	Err         error
	Metadata    map[string]interface{}
}

// Observer receives AuditEvents. Implementations must not block the driver
// for long; slow sinks should buffer internally.
type Observer interface {
	OnEvent(ctx context.Context, event AuditEvent)
}

// Manager fans one AuditEvent out to every registered Observer.
type Manager struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds an observer.
func (m *Manager) Register(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Emit fans event out to every registered observer.
func (m *Manager) Emit(ctx context.Context, event AuditEvent) {
	m.mu.RLock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.RUnlock()

	for _, o := range observers {
		o.OnEvent(ctx, event)
	}
}

// NoOpObserver discards every event; the Manager's default state behaves
// the same without one, but this is handy for tests that want an explicit
// no-op value.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, AuditEvent) {}
