package driver_test

import (
	"context"
	"testing"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/driver"
	"github.com/flowloom/engine/internal/handler"
	"github.com/flowloom/engine/internal/storage"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// fakeHTTPClient returns a canned response for every call, recording the
// requests it receives.
type fakeHTTPClient struct {
	status int
	body   []byte
	calls  int
}

func (f *fakeHTTPClient) Send(ctx context.Context, method, url string, headers map[string]string, basicAuth *capability.BasicAuth, body []byte) (int, map[string]string, []byte, error) {
	f.calls++
	return f.status, nil, f.body, nil
}

// waitGateHandler emits the {__wait:true,...} branch-termination marker on
// its first call, simulating a sendAndWait-style node without depending on
// a real external system.
type waitGateHandler struct{ calls int }

func (h *waitGateHandler) Kind() string { return "wait-gate" }

func (h *waitGateHandler) Execute(ectx handler.EngineContext, node types.Node, input value.Value) (value.Value, error) {
	h.calls++
	out := value.NewObject()
	out.Set("__wait", value.Bool(true))
	out.Set("type", value.String("test_wait"))
	return out, nil
}

func newTestDriver(t *testing.T, reg *handler.Registry, caps handler.Capabilities) (*driver.Driver, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return driver.New(reg, caps, nil, store, nil, nil, nil), store
}

// TestRun_LinearChain pins scenario S1: a trigger feeding a single
// http-request node produces two results, both successful, with the
// second's output equal to the mocked HTTP response body.
func TestRun_LinearChain(t *testing.T) {
	client := &fakeHTTPClient{status: 200, body: []byte(`{"ok":1}`)}
	reg := handler.NewDefaultRegistry()
	d, _ := newTestDriver(t, reg, handler.Capabilities{HTTPClient: client})

	wf := types.Workflow{
		ID: "wf-s1",
		Nodes: []types.Node{
			{ID: "A", Kind: "trigger-start"},
			{ID: "B", Kind: "http-request", Config: value.FromRaw(map[string]interface{}{"url": "https://x/y"})},
		},
		Edges: []types.Edge{{From: "A", To: "B"}},
	}

	record, err := d.Run(context.Background(), "exec-s1", wf, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != types.StatusSuccess {
		t.Fatalf("expected status success, got %q", record.Status)
	}
	if len(record.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(record.Results))
	}
	for _, r := range record.Results {
		if !r.Success {
			t.Fatalf("expected all results successful, got failure on %q: %s", r.NodeID, r.Error)
		}
	}
	second := record.Results[1]
	if second.Output == nil {
		t.Fatalf("expected node B to have an output")
	}
	if ok, _ := second.Output.Get("ok"); ok.Number() != 1 {
		t.Fatalf("expected output.ok == 1, got %v", second.Output.Raw())
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly 1 HTTP call, got %d", client.calls)
	}
}

// TestRun_FilteredBranchStopsEnqueueing pins invariant 3: a node emitting
// __filtered=true ends its branch without enqueueing its successor.
func TestRun_FilteredBranchStopsEnqueueing(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	d, _ := newTestDriver(t, reg, handler.Capabilities{})

	filterConfig := value.FromRaw(map[string]interface{}{
		"conditions": []interface{}{
			map[string]interface{}{
				"leftValue":  "1",
				"rightValue": "2",
				"operator":   map[string]interface{}{"type": "number", "operation": "equals"},
			},
		},
	})

	wf := types.Workflow{
		ID: "wf-s3",
		Nodes: []types.Node{
			{ID: "A", Kind: "trigger-start"},
			{ID: "F", Kind: "filter", Config: filterConfig},
			{ID: "Never", Kind: "trigger-start"},
		},
		Edges: []types.Edge{
			{From: "A", To: "F"},
			{From: "F", To: "Never"},
		},
	}

	record, err := d.Run(context.Background(), "exec-s3", wf, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Status != types.StatusSuccess {
		t.Fatalf("expected status success, got %q", record.Status)
	}
	if len(record.Results) != 2 {
		t.Fatalf("expected the filtered branch to stop before Never, got %d results: %+v", len(record.Results), record.Results)
	}
	for _, r := range record.Results {
		if r.NodeID == "Never" {
			t.Fatalf("Never should not have been enqueued after a __filtered output")
		}
	}
}

// TestRun_PortRoutingOnlyEnqueuesMatchingEdges pins invariant 4: a node
// emitting __port=p only enqueues successor edges whose fromPort equals p.
func TestRun_PortRoutingOnlyEnqueuesMatchingEdges(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	d, _ := newTestDriver(t, reg, handler.Capabilities{})

	ifConfig := value.FromRaw(map[string]interface{}{
		"conditions": []interface{}{
			map[string]interface{}{
				"leftValue":  "1",
				"rightValue": "1",
				"operator":   map[string]interface{}{"type": "number", "operation": "equals"},
			},
		},
	})

	wf := types.Workflow{
		ID: "wf-port",
		Nodes: []types.Node{
			{ID: "A", Kind: "trigger-start"},
			{ID: "If", Kind: "if", Config: ifConfig},
			{ID: "OnTrue", Kind: "trigger-start"},
			{ID: "OnFalse", Kind: "trigger-start"},
		},
		Edges: []types.Edge{
			{From: "A", To: "If"},
			{From: "If", To: "OnTrue", FromPort: "true"},
			{From: "If", To: "OnFalse", FromPort: "false"},
		},
	}

	record, err := d.Run(context.Background(), "exec-port", wf, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawTrue, sawFalse bool
	for _, r := range record.Results {
		if r.NodeID == "OnTrue" {
			sawTrue = true
		}
		if r.NodeID == "OnFalse" {
			sawFalse = true
		}
	}
	if !sawTrue {
		t.Fatalf("expected the true-port branch to run")
	}
	if sawFalse {
		t.Fatalf("expected the false-port branch to be skipped")
	}
}

// TestRun_WaitSuspendsAndResumeCompletes pins scenario S4: a node emitting
// __wait suspends the execution with the remaining branch snapshotted, and
// resuming with an external signal completes it without re-entering the
// paused node.
func TestRun_WaitSuspendsAndResumeCompletes(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	gate := &waitGateHandler{}
	reg.Register(gate)
	d, store := newTestDriver(t, reg, handler.Capabilities{})

	wf := types.Workflow{
		ID: "wf-s4",
		Nodes: []types.Node{
			{ID: "A", Kind: "trigger-start"},
			{ID: "S", Kind: "wait-gate"},
			{ID: "B", Kind: "trigger-start"},
		},
		Edges: []types.Edge{
			{From: "A", To: "S"},
			{From: "S", To: "B"},
		},
	}

	ctx := context.Background()
	record, err := d.Run(ctx, "exec-s4", wf, nil)
	if err != driver.ErrPaused {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	if record.Status != types.StatusWaiting {
		t.Fatalf("expected status waiting, got %q", record.Status)
	}
	if len(record.Results) != 2 {
		t.Fatalf("expected 2 results before suspension, got %d", len(record.Results))
	}
	if record.Snapshot == nil || record.Snapshot.CurrentNodeID != "S" {
		t.Fatalf("expected a snapshot pinned at node S, got %+v", record.Snapshot)
	}
	if gate.calls != 1 {
		t.Fatalf("expected the wait node to run exactly once before resume, got %d", gate.calls)
	}

	resumeInput := value.FromRaw(map[string]interface{}{"action": "approve"})
	resumed, err := d.Resume(ctx, record, wf, resumeInput)
	if err != nil {
		t.Fatalf("unexpected error on resume: %v", err)
	}
	if resumed.Status != types.StatusSuccess {
		t.Fatalf("expected status success after resume, got %q", resumed.Status)
	}
	if len(resumed.Results) != 3 {
		t.Fatalf("expected 3 results after resume, got %d", len(resumed.Results))
	}
	if gate.calls != 1 {
		t.Fatalf("resume must not re-enter the paused node, got %d calls", gate.calls)
	}

	// Invariant 5: resume is idempotent against a non-waiting record.
	again, err := d.Resume(ctx, resumed, wf, resumeInput)
	if err != nil {
		t.Fatalf("expected the second resume to be a no-op, got error %v", err)
	}
	if len(again.Results) != 3 {
		t.Fatalf("expected the second resume not to change results, got %d", len(again.Results))
	}

	persisted, getErr := store.GetExecution(ctx, "exec-s4")
	if getErr != nil {
		t.Fatalf("expected persisted execution record: %v", getErr)
	}
	if persisted.Status != types.StatusSuccess {
		t.Fatalf("expected persisted status success, got %q", persisted.Status)
	}
}

// TestRun_FailingNodeStopsWithoutDrainingQueue pins spec §4.6 step c: a
// failing node stops the driver rather than continuing to drain the queue.
func TestRun_FailingNodeStopsWithoutDrainingQueue(t *testing.T) {
	reg := handler.NewDefaultRegistry()
	d, _ := newTestDriver(t, reg, handler.Capabilities{}) // no HTTPClient wired

	wf := types.Workflow{
		ID: "wf-fail",
		Nodes: []types.Node{
			{ID: "A", Kind: "trigger-start"},
			{ID: "B", Kind: "http-request", Config: value.FromRaw(map[string]interface{}{"url": "https://x/y"})},
			{ID: "C", Kind: "trigger-start"},
		},
		Edges: []types.Edge{
			{From: "A", To: "B"},
			{From: "A", To: "C"},
		},
	}

	record, err := d.Run(context.Background(), "exec-fail", wf, nil)
	if err == nil {
		t.Fatalf("expected an error from the missing HttpClient capability")
	}
	if record.Status != types.StatusFailed {
		t.Fatalf("expected status failed, got %q", record.Status)
	}
	if len(record.Results) == 0 || record.Results[len(record.Results)-1].Success {
		t.Fatalf("expected the final result to be the failing node")
	}
	for _, r := range record.Results {
		if r.NodeID == "C" {
			t.Fatalf("sibling node C must not run once B fails mid-drain")
		}
	}
}
