package handler

import (
	"strconv"

	"github.com/expr-lang/expr"

	"github.com/flowloom/engine/internal/condition"
	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// withPort returns a copy of input augmented with __port, preserving input
// as an object if it already is one, else wrapping it so __port can still
// be attached.
func withPort(input value.Value, port string) value.Value {
	out := input
	if !out.IsObject() {
		out = value.NewObject()
		if !input.IsNull() {
			out.Set("value", input)
		}
	}
	out.Set("__port", value.String(port))
	return out
}

// ifHandler implements the if kind: evaluates C2 against input and routes
// to the "true"/"false" port (spec §4.3).
type ifHandler struct{}

func (ifHandler) Kind() string { return "if" }

func (ifHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	group := condition.ParseGroup(node.Config, input)
	port := "false"
	if condition.Evaluate(group) {
		port = "true"
	}
	return withPort(input, port), nil
}

// filterHandler implements the filter kind: passes input through on a true
// evaluation, else returns the {__filtered:true} branch-termination marker
// (spec §4.3).
type filterHandler struct{}

func (filterHandler) Kind() string { return "filter" }

func (filterHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	group := condition.ParseGroup(node.Config, input)
	if condition.Evaluate(group) {
		return input, nil
	}
	out := value.NewObject()
	out.Set("__filtered", value.Bool(true))
	return out, nil
}

// switchHandler implements the switch kind. Mode "rules" evaluates each
// rule's conditions in order and routes to the first match's index (as a
// string) or "fallback"; mode "expression" routes verbatim to
// config.output (spec §4.3). When config carries an optional `expression`
// string (an author-facing note documenting the intent behind `output`),
// it is compile-checked with expr-lang/expr before routing — a cheap
// config-time guard rail, not an evaluation path: the route itself still
// comes from `output` verbatim, matching the teacher's condition language
// being reserved for a general expression surface this node doesn't use.
type switchHandler struct{}

func (switchHandler) Kind() string { return "switch" }

func (switchHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	mode := configStringDefault(node.Config, "mode", "rules")

	if mode == "expression" {
		if expression, ok := configString(node.Config, "expression"); ok && expression != "" {
			if _, err := expr.Compile(expression); err != nil {
				return value.Null(), engineerr.Config("switch: invalid expression: " + err.Error())
			}
		}
		output := configNumber(node.Config, "output", 0)
		return withPort(input, strconv.Itoa(int(output))), nil
	}

	rules, ok := node.Config.Get("rules")
	if !ok || !rules.IsArray() {
		return withPort(input, "fallback"), nil
	}

	for i, rule := range rules.Items() {
		group := condition.ParseGroup(rule, input)
		if condition.Evaluate(group) {
			return withPort(input, strconv.Itoa(i)), nil
		}
	}
	return withPort(input, "fallback"), nil
}
