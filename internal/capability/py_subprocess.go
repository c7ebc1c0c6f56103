package capability

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/flowloom/engine/internal/value"
)

// SubprocessPyRunner implements PyRunner by shelling out to a python3
// interpreter. No example repo in the pack embeds a Python VM, so this is
// the one capability in the engine built directly on the standard library
// rather than a vendored interpreter; see DESIGN.md for the justification.
//
// Run executes code verbatim as a full script with `input` bound as a
// parsed-JSON global, then decodes whatever the script printed on stdout:
// valid JSON is returned as-is, anything else is wrapped as {"output": ...}.
// Language-specific conventions (the code node's "def main(data)" wrapping,
// spec §4.3) are the handler's responsibility, not this capability's — this
// keeps PyRunner a thin, reusable "run this script" primitive.
type SubprocessPyRunner struct {
	// Interpreter is the python executable to invoke; defaults to "python3".
	Interpreter string
}

func (r SubprocessPyRunner) Run(ctx context.Context, code string, input value.Value) (value.Value, error) {
	interpreter := r.Interpreter
	if interpreter == "" {
		interpreter = "python3"
	}

	script := fmt.Sprintf("import json\n\ninput = json.loads(%q)\n\n%s\n", input.JSON(), code)

	file, err := os.CreateTemp("", "workflow-node-*.py")
	if err != nil {
		return value.Null(), fmt.Errorf("python: create temp script: %w", err)
	}
	defer os.Remove(file.Name())
	if _, err := file.WriteString(script); err != nil {
		file.Close()
		return value.Null(), fmt.Errorf("python: write temp script: %w", err)
	}
	if err := file.Close(); err != nil {
		return value.Null(), fmt.Errorf("python: close temp script: %w", err)
	}

	cmd := exec.CommandContext(ctx, interpreter, file.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return value.Null(), fmt.Errorf("python: %w: %s", err, stderr.String())
	}

	out := strings.TrimSpace(stdout.String())
	if parsed, err := value.Parse([]byte(out)); err == nil {
		return parsed, nil
	}

	wrapped := value.NewObject()
	wrapped.Set("output", value.String(out))
	return wrapped, nil
}
