package handler

import (
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

func triggered() value.Value {
	out := value.NewObject()
	out.Set("triggered", value.Bool(true))
	return out
}

// triggerHandler backs trigger-start, trigger-schedule and trigger-webhook:
// pure nodes that simply mark the run as started (spec §4.3).
type triggerHandler struct{ kind string }

func (h triggerHandler) Kind() string { return h.kind }

func (h triggerHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	return triggered(), nil
}

// chatTriggerHandler returns config.initialInput when present, else the
// same {"triggered": true} sentinel.
type chatTriggerHandler struct{}

func (chatTriggerHandler) Kind() string { return "chat-trigger" }

func (chatTriggerHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	if initial, ok := node.Config.Get("initialInput"); ok {
		return initial, nil
	}
	return triggered(), nil
}
