package handler

import (
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// unknownHandler is the Registry's fallback for any node.Kind with no
// registered Handler: a stable, deliberately boring sentinel value so that
// partially-supported imported workflows stay runnable (spec §4.3, §9
// Design Notes).
type unknownHandler struct{}

func (unknownHandler) Kind() string { return "" }

func (unknownHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	out := value.NewObject()
	out.Set("result", value.String("Node executed"))
	return out, nil
}
