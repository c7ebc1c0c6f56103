package handler

import (
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// toolHandler implements the tool kind: a static descriptor, never invoked
// for its own sake — it is only reached directly if dispatched outside an
// agent's toPort="tools" wiring, in which case it simply echoes its
// config (spec §4.3).
type toolHandler struct{}

func (toolHandler) Kind() string { return "tool" }

func (toolHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	return node.Config, nil
}
