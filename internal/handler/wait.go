package handler

import (
	"time"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// waitHandler implements the wait kind: sleeps for amount in the given unit
// via the Clock capability, so the sleep is cancellable and mockable in
// tests (spec §4.3).
type waitHandler struct{}

func (waitHandler) Kind() string { return "wait" }

func (waitHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	if ectx.Capabilities.Clock == nil {
		return value.Null(), engineerr.Config("no Clock capability configured")
	}

	amount := configNumber(node.Config, "amount", 0)
	unit := configStringDefault(node.Config, "unit", "seconds")

	var multiplier time.Duration
	switch unit {
	case "seconds":
		multiplier = time.Second
	case "minutes":
		multiplier = time.Minute
	case "hours":
		multiplier = time.Hour
	default:
		return value.Null(), engineerr.Config("unsupported wait unit " + unit)
	}

	duration := time.Duration(amount) * multiplier
	if err := ectx.Capabilities.Clock.Sleep(ectx.Context(), duration); err != nil {
		return value.Null(), engineerr.Engine("wait cancelled", err)
	}

	seconds := duration.Seconds()
	out := value.NewObject()
	out.Set("waited", value.Number(seconds))
	out.Set("unit", value.String("seconds"))
	return out, nil
}
