package observer

import (
	"context"
	"sync"
	"testing"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (r *recordingObserver) OnEvent(ctx context.Context, event AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestManager_EmitFansOutToEveryRegisteredObserver(t *testing.T) {
	m := NewManager()
	a := &recordingObserver{}
	b := &recordingObserver{}
	m.Register(a)
	m.Register(b)

	m.Emit(context.Background(), AuditEvent{Type: EventExecutionStart, ExecutionID: "e-1"})

	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("expected both observers to receive the event, got a=%d b=%d", a.count(), b.count())
	}
}

func TestManager_EmitWithNoObserversDoesNotPanic(t *testing.T) {
	m := NewManager()
	m.Emit(context.Background(), AuditEvent{Type: EventNodeStart})
}

func TestManager_EmitPreservesEventFields(t *testing.T) {
	m := NewManager()
	rec := &recordingObserver{}
	m.Register(rec)

	m.Emit(context.Background(), AuditEvent{
		Type:        EventNodeFailure,
		ExecutionID: "e-1",
		NodeID:      "n-1",
		NodeKind:    "http-request",
	})

	if rec.count() != 1 {
		t.Fatalf("expected one event recorded, got %d", rec.count())
	}
	got := rec.events[0]
	if got.NodeID != "n-1" || got.NodeKind != "http-request" || got.Type != EventNodeFailure {
		t.Fatalf("unexpected event recorded: %+v", got)
	}
}

func TestNoOpObserver_DiscardsEvents(t *testing.T) {
	var o NoOpObserver
	o.OnEvent(context.Background(), AuditEvent{Type: EventExecutionEnd})
}
