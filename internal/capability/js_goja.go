package capability

import (
	"context"
	"encoding/json"
	"encoding/base64"
	"fmt"

	"github.com/dop251/goja"

	"github.com/flowloom/engine/internal/value"
)

// GojaRunner implements JsRunner with an embedded goja VM. A fresh
// goja.Runtime is created per call so no state or global leaks between
// executions; ctx cancellation interrupts a running script.
//
// Unlike rakunlabs-at's goja wiring, this runner does not expose
// httpGet/httpPost/etc. to scripts: the code node is meant to be sandboxed,
// and an HTTP helper inside it would bypass the SSRF guard that every other
// outbound call goes through.
type GojaRunner struct{}

// Run evaluates code with `input` bound to the given Value and returns the
// value of the script's last expression.
func (GojaRunner) Run(ctx context.Context, code string, input value.Value) (value.Value, error) {
	vm := goja.New()
	if err := registerHelpers(vm); err != nil {
		return value.Null(), fmt.Errorf("js: register helpers: %w", err)
	}
	if err := vm.Set("input", input.Raw()); err != nil {
		return value.Null(), fmt.Errorf("js: set input: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("execution cancelled")
		case <-done:
		}
	}()

	result, err := vm.RunString(code)
	if err != nil {
		return value.Null(), fmt.Errorf("js: %w", err)
	}

	return value.FromRaw(result.Export()), nil
}

func registerHelpers(vm *goja.Runtime) error {
	if err := vm.Set("jsonParse", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		var raw []byte
		switch v := call.Arguments[0].Export().(type) {
		case []byte:
			raw = v
		case string:
			raw = []byte(v)
		default:
			panic(vm.NewTypeError("jsonParse: expected string or bytes"))
		}
		var parsed interface{}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			panic(vm.NewTypeError("jsonParse: " + err.Error()))
		}
		return vm.ToValue(parsed)
	}); err != nil {
		return err
	}

	if err := vm.Set("jsonStringify", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return vm.ToValue("")
		}
		data, err := json.Marshal(call.Arguments[0].Export())
		if err != nil {
			panic(vm.NewTypeError("jsonStringify: " + err.Error()))
		}
		return vm.ToValue(string(data))
	}); err != nil {
		return err
	}

	if err := vm.Set("btoa", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return vm.ToValue("")
		}
		return vm.ToValue(base64.StdEncoding.EncodeToString([]byte(call.Arguments[0].String())))
	}); err != nil {
		return err
	}

	if err := vm.Set("atob", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return vm.ToValue("")
		}
		decoded, err := base64.StdEncoding.DecodeString(call.Arguments[0].String())
		if err != nil {
			panic(vm.NewTypeError("atob: " + err.Error()))
		}
		return vm.ToValue(string(decoded))
	}); err != nil {
		return err
	}

	return nil
}
