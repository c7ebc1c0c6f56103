package handler

import (
	"errors"
	"testing"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

func numberCondition(left, right, op string) value.Value {
	operator := value.NewObject()
	operator.Set("type", value.String("number"))
	operator.Set("operation", value.String(op))

	cond := value.NewObject()
	cond.Set("leftValue", value.String(left))
	cond.Set("rightValue", value.String(right))
	cond.Set("operator", operator)

	group := value.NewObject()
	group.Set("conditions", value.Array(cond))
	return group
}

func TestIfHandler_RoutesTrueAndFalse(t *testing.T) {
	h := ifHandler{}

	input := value.NewObject()
	input.Set("age", value.Number(25))
	out, err := h.Execute(ectx(), types.Node{Kind: "if", Config: numberCondition("{{ $input.age }}", "18", "gte")}, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, _ := out.Get("__port")
	if port.Str() != "true" {
		t.Fatalf("expected true port for age 25 >= 18, got %v", out.JSON())
	}

	input.Set("age", value.Number(10))
	out, err = h.Execute(ectx(), types.Node{Kind: "if", Config: numberCondition("{{ $input.age }}", "18", "gte")}, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, _ = out.Get("__port")
	if port.Str() != "false" {
		t.Fatalf("expected false port for age 10 >= 18, got %v", out.JSON())
	}
}

func TestFilterHandler_PassesThroughOrMarksFiltered(t *testing.T) {
	h := filterHandler{}

	input := value.NewObject()
	input.Set("age", value.Number(25))
	out, err := h.Execute(ectx(), types.Node{Kind: "filter", Config: numberCondition("{{ $input.age }}", "18", "gte")}, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if age, ok := out.Get("age"); !ok || age.Number() != 25 {
		t.Fatalf("expected input passed through unchanged, got %v", out.JSON())
	}

	input.Set("age", value.Number(5))
	out, err = h.Execute(ectx(), types.Node{Kind: "filter", Config: numberCondition("{{ $input.age }}", "18", "gte")}, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filtered, ok := out.Get("__filtered")
	if !ok || !filtered.Bool() {
		t.Fatalf("expected __filtered marker, got %v", out.JSON())
	}
}

func TestSwitchHandler_RulesModeRoutesToFirstMatchOrFallback(t *testing.T) {
	h := switchHandler{}

	rule0 := numberCondition("{{ $input.status }}", "200", "equals")
	rule1 := numberCondition("{{ $input.status }}", "404", "equals")
	cfg := value.NewObject()
	cfg.Set("mode", value.String("rules"))
	cfg.Set("rules", value.Array(rule0, rule1))

	input := value.NewObject()
	input.Set("status", value.Number(404))
	out, err := h.Execute(ectx(), types.Node{Kind: "switch", Config: cfg}, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, _ := out.Get("__port")
	if port.Str() != "1" {
		t.Fatalf("expected match on rule index 1, got %v", out.JSON())
	}

	input.Set("status", value.Number(500))
	out, err = h.Execute(ectx(), types.Node{Kind: "switch", Config: cfg}, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, _ = out.Get("__port")
	if port.Str() != "fallback" {
		t.Fatalf("expected fallback route for unmatched status, got %v", out.JSON())
	}
}

func TestSwitchHandler_RulesModeWithNoRulesConfiguredIsFallback(t *testing.T) {
	h := switchHandler{}
	cfg := value.NewObject()
	cfg.Set("mode", value.String("rules"))

	out, err := h.Execute(ectx(), types.Node{Kind: "switch", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, _ := out.Get("__port")
	if port.Str() != "fallback" {
		t.Fatalf("expected fallback when no rules array is configured, got %v", out.JSON())
	}
}

func TestSwitchHandler_ExpressionModeRoutesByOutputVerbatim(t *testing.T) {
	h := switchHandler{}
	cfg := value.NewObject()
	cfg.Set("mode", value.String("expression"))
	cfg.Set("expression", value.String(`input.status == 200`))
	cfg.Set("output", value.Number(3))

	out, err := h.Execute(ectx(), types.Node{Kind: "switch", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, _ := out.Get("__port")
	if port.Str() != "3" {
		t.Fatalf("expected expression mode to route verbatim to output, got %v", out.JSON())
	}
}

func TestSwitchHandler_ExpressionModeRejectsInvalidSyntax(t *testing.T) {
	h := switchHandler{}
	cfg := value.NewObject()
	cfg.Set("mode", value.String("expression"))
	cfg.Set("expression", value.String(`input.status ===`))
	cfg.Set("output", value.Number(0))

	_, err := h.Execute(ectx(), types.Node{Kind: "switch", Config: cfg}, value.NewObject())
	if err == nil {
		t.Fatal("expected ConfigError for malformed expression")
	}
	var engErr *engineerr.Error
	if !errors.As(err, &engErr) || engErr.Kind != engineerr.KindConfig {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestSwitchHandler_ExpressionModeWithoutExpressionStillRoutes(t *testing.T) {
	h := switchHandler{}
	cfg := value.NewObject()
	cfg.Set("mode", value.String("expression"))
	cfg.Set("output", value.Number(2))

	out, err := h.Execute(ectx(), types.Node{Kind: "switch", Config: cfg}, value.NewObject())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	port, _ := out.Get("__port")
	if port.Str() != "2" {
		t.Fatalf("expected route by output even without an expression note, got %v", out.JSON())
	}
}
