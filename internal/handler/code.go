package handler

import (
	"fmt"
	"strings"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// codeHandler implements the code kind for both supported languages (spec
// §4.3). Each branch builds the full script text per that language's
// convention and hands it to the matching capability (JsRunner/PyRunner),
// which stays a thin "run this script" primitive.
type codeHandler struct{}

func (codeHandler) Kind() string { return "code" }

func (codeHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	code, ok := configString(node.Config, "code")
	if !ok {
		return value.Null(), engineerr.MissingField("code")
	}

	switch configStringDefault(node.Config, "language", "javascript") {
	case "javascript":
		return runJavaScript(ectx, code, input)
	case "python":
		return runPython(ectx, code, input)
	default:
		return value.Null(), engineerr.Config("unsupported code language")
	}
}

// $input normalises a single input Value into n8n-style [{json: ...}]
// items: an array input is used as-is, anything else is treated as one
// item.
const jsInputHelper = `
var $input = {
	all: function() {
		var items = Array.isArray(input) ? input : [input];
		return items.map(function(v) { return {json: v}; });
	},
	first: function() { return $input.all()[0]; },
	last: function() { var a = $input.all(); return a[a.length - 1]; }
};
`

func runJavaScript(ectx EngineContext, code string, input value.Value) (value.Value, error) {
	if ectx.Capabilities.JsRunner == nil {
		return value.Null(), engineerr.Config("no JsRunner capability configured")
	}

	wrapped := jsInputHelper + "\n(function() {\n" + code + "\n})();\n"

	result, err := ectx.Capabilities.JsRunner.Run(ectx.Context(), wrapped, input)
	if err != nil {
		return value.Null(), engineerr.Code("JS", err.Error())
	}
	return result, nil
}

func runPython(ectx EngineContext, code string, input value.Value) (value.Value, error) {
	if ectx.Capabilities.PyRunner == nil {
		return value.Null(), engineerr.Config("no PyRunner capability configured")
	}

	indented := indentPython(code)
	wrapped := fmt.Sprintf("import json\n\ndef main(data):\n%s\n\nprint(json.dumps(main(input)))\n", indented)

	result, err := ectx.Capabilities.PyRunner.Run(ectx.Context(), wrapped, input)
	if err != nil {
		return value.Null(), engineerr.Code("Python", err.Error())
	}
	return result, nil
}

func indentPython(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
