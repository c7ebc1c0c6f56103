package handler

import (
	"context"
	"testing"

	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

func ectx() EngineContext {
	return NewEngineContext(context.Background(), Capabilities{}, types.Workflow{}, nil)
}

func TestTriggerHandler_ReturnsTriggeredSentinel(t *testing.T) {
	h := triggerHandler{kind: "trigger-start"}
	out, err := h.Execute(ectx(), types.Node{Kind: "trigger-start"}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	triggered, ok := out.Get("triggered")
	if !ok || !triggered.IsBool() || !triggered.Bool() {
		t.Fatalf("expected {triggered: true}, got %v", out.JSON())
	}
}

func TestChatTriggerHandler_UsesInitialInput(t *testing.T) {
	cfg := value.NewObject()
	initial := value.NewObject()
	initial.Set("foo", value.String("bar"))
	cfg.Set("initialInput", initial)

	h := chatTriggerHandler{}
	out, err := h.Execute(ectx(), types.Node{Kind: "chat-trigger", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foo, ok := out.Get("foo")
	if !ok || foo.Str() != "bar" {
		t.Fatalf("expected initialInput passthrough, got %v", out.JSON())
	}
}

func TestChatTriggerHandler_FallsBackToSentinel(t *testing.T) {
	h := chatTriggerHandler{}
	out, err := h.Execute(ectx(), types.Node{Kind: "chat-trigger"}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if triggered, ok := out.Get("triggered"); !ok || !triggered.Bool() {
		t.Fatalf("expected fallback {triggered:true}, got %v", out.JSON())
	}
}

func TestUnknownHandler_IsStableSentinel(t *testing.T) {
	h := unknownHandler{}
	out, err := h.Execute(ectx(), types.Node{Kind: "some-future-node-kind"}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, ok := out.Get("result")
	if !ok || result.Str() != "Node executed" {
		t.Fatalf("expected soft no-op sentinel, got %v", out.JSON())
	}
}

func TestRegistry_UnregisteredKindFallsBackToUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register(triggerHandler{kind: "trigger-start"})

	out, err := r.Execute(ectx(), types.Node{Kind: "never-registered"}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result, ok := out.Get("result"); !ok || result.Str() != "Node executed" {
		t.Fatalf("expected unknown-handler fallback, got %v", out.JSON())
	}
	if r.Has("never-registered") {
		t.Fatalf("Has should report false for an unregistered kind")
	}
	if !r.Has("trigger-start") {
		t.Fatalf("Has should report true for a registered kind")
	}
}

func TestToolHandler_EchoesConfig(t *testing.T) {
	cfg := value.NewObject()
	cfg.Set("mcpServerId", value.String("srv-1"))

	h := toolHandler{}
	out, err := h.Execute(ectx(), types.Node{Kind: "tool", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, ok := out.Get("mcpServerId")
	if !ok || id.Str() != "srv-1" {
		t.Fatalf("expected config echoed verbatim, got %v", out.JSON())
	}
}

func TestNewDefaultRegistry_RegistersEverySpecKind(t *testing.T) {
	r := NewDefaultRegistry()
	kinds := []string{
		"trigger-start", "trigger-schedule", "trigger-webhook", "chat-trigger",
		"http-request", "openai", "openrouter", "llm", "ai-agent", "tool",
		"code", "wait", "if", "filter", "switch", "postgres",
		"convert-to-file", "extract-from-file", "read-write-file",
		"rss-feed-read", "slack", "dateTime",
	}
	for _, k := range kinds {
		if !r.Has(k) {
			t.Errorf("expected default registry to register kind %q", k)
		}
	}
}
