package condition

import (
	"strconv"
	"strings"

	"github.com/flowloom/engine/internal/value"
)

// Operator names a typed comparison: a value domain ("string", "number",
// "boolean") plus the operation within that domain.
type Operator struct {
	Type      string
	Operation string
}

// Condition is one leaf of a condition tree. LeftValue/RightValue are
// templates; callers interpolate them against the node's input before
// Evaluate compares them.
type Condition struct {
	LeftValue  string
	RightValue string
	Operator   Operator
}

// Group is the full input shape for the "if"/"filter" node kinds: a set of
// conditions combined with "and" or "or".
type Group struct {
	Conditions []Condition
	Combinator string
	IgnoreCase bool
}

// Evaluate runs the group against already-interpolated operand strings.
// A missing conditions list is true under "and" (the default) and false
// under "or"; an unknown type/operation makes that single condition false
// (spec §4.2).
func Evaluate(g Group) bool {
	combinator := g.Combinator
	if combinator == "" {
		combinator = "and"
	}

	if len(g.Conditions) == 0 {
		return combinator != "or"
	}

	switch combinator {
	case "or":
		for _, c := range g.Conditions {
			if evalOne(c, g.IgnoreCase) {
				return true
			}
		}
		return false
	default: // "and"
		for _, c := range g.Conditions {
			if !evalOne(c, g.IgnoreCase) {
				return false
			}
		}
		return true
	}
}

func evalOne(c Condition, ignoreCase bool) bool {
	switch c.Operator.Type {
	case "string":
		return evalString(c, ignoreCase)
	case "number":
		return evalNumber(c)
	case "boolean":
		return evalBoolean(c)
	default:
		return false
	}
}

func evalString(c Condition, ignoreCase bool) bool {
	left, right := c.LeftValue, c.RightValue
	if ignoreCase {
		left = strings.ToLower(left)
		right = strings.ToLower(right)
	}

	switch c.Operator.Operation {
	case "equals":
		return left == right
	case "notEquals":
		return left != right
	case "contains":
		return strings.Contains(left, right)
	case "notContains":
		return !strings.Contains(left, right)
	case "startsWith":
		return strings.HasPrefix(left, right)
	case "endsWith":
		return strings.HasSuffix(left, right)
	case "isEmpty":
		return left == ""
	case "isNotEmpty":
		return left != ""
	default:
		return false
	}
}

func evalNumber(c Condition) bool {
	left, lerr := strconv.ParseFloat(strings.TrimSpace(c.LeftValue), 64)
	right, rerr := strconv.ParseFloat(strings.TrimSpace(c.RightValue), 64)
	if lerr != nil || rerr != nil {
		return false
	}

	switch c.Operator.Operation {
	case "equals", "eq":
		return left == right
	case "notEquals", "ne":
		return left != right
	case "gt", "larger":
		return left > right
	case "gte", "largerEqual":
		return left >= right
	case "lt", "smaller":
		return left < right
	case "lte", "smallerEqual":
		return left <= right
	default:
		return false
	}
}

func evalBoolean(c Condition) bool {
	left := parseBool(c.LeftValue)

	switch c.Operator.Operation {
	case "true":
		return left
	case "false":
		return !left
	case "equals":
		return left == parseBool(c.RightValue)
	default:
		return false
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return b
}

// ParseGroup decodes a Group plus its interpolated operand strings from a
// node's config+input, per spec §4.2: every leftValue/rightValue template is
// interpolated against input before comparison, and options.ignoreCase
// defaults to true.
func ParseGroup(cfg value.Value, input value.Value) Group {
	ignoreCase := true
	if opts, ok := cfg.Get("options"); ok {
		if ic, ok := opts.Get("ignoreCase"); ok && ic.IsBool() {
			ignoreCase = ic.Bool()
		}
	}

	combinator := "and"
	if c, ok := cfg.Get("combinator"); ok && c.IsString() {
		combinator = c.Str()
	}

	g := Group{Combinator: combinator, IgnoreCase: ignoreCase}

	conditions, ok := cfg.Get("conditions")
	if !ok || !conditions.IsArray() {
		return g
	}

	for _, item := range conditions.Items() {
		var cond Condition

		if lv, ok := item.Get("leftValue"); ok {
			cond.LeftValue = value.Interpolate(lv.RawString(), input)
		}
		if rv, ok := item.Get("rightValue"); ok {
			cond.RightValue = value.Interpolate(rv.RawString(), input)
		}
		if op, ok := item.Get("operator"); ok {
			if t, ok := op.Get("type"); ok {
				cond.Operator.Type = t.Str()
			}
			if o, ok := op.Get("operation"); ok {
				cond.Operator.Operation = o.Str()
			}
		}

		g.Conditions = append(g.Conditions, cond)
	}

	return g
}
