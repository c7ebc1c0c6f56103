package types

import "testing"

func TestWorkflow_NodeByID(t *testing.T) {
	wf := Workflow{Nodes: []Node{{ID: "a"}, {ID: "b"}}}

	if got := wf.NodeByID("b"); got == nil || got.ID != "b" {
		t.Fatalf("expected to find node b, got %v", got)
	}
	if got := wf.NodeByID("missing"); got != nil {
		t.Fatalf("expected nil for missing node, got %v", got)
	}
}

func TestWorkflow_ValidateAcceptsWellFormedGraph(t *testing.T) {
	wf := Workflow{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{From: "a", To: "b"}},
	}
	if err := wf.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWorkflow_ValidateRejectsDanglingFrom(t *testing.T) {
	wf := Workflow{
		Nodes: []Node{{ID: "b"}},
		Edges: []Edge{{From: "missing", To: "b"}},
	}
	err := wf.Validate()
	if err == nil {
		t.Fatal("expected dangling edge error")
	}
	danglingErr, ok := err.(*DanglingEdgeError)
	if !ok || danglingErr.Missing != "missing" {
		t.Fatalf("expected DanglingEdgeError naming the missing source node, got %v", err)
	}
}

func TestWorkflow_ValidateRejectsDanglingTo(t *testing.T) {
	wf := Workflow{
		Nodes: []Node{{ID: "a"}},
		Edges: []Edge{{From: "a", To: "missing"}},
	}
	err := wf.Validate()
	if err == nil {
		t.Fatal("expected dangling edge error")
	}
	danglingErr, ok := err.(*DanglingEdgeError)
	if !ok || danglingErr.Missing != "missing" {
		t.Fatalf("expected DanglingEdgeError naming the missing target node, got %v", err)
	}
}

func TestDanglingEdgeError_MessageNamesBothEndpoints(t *testing.T) {
	err := &DanglingEdgeError{EdgeFrom: "a", EdgeTo: "z", Missing: "z"}
	want := "edge a->z references missing node z"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}
