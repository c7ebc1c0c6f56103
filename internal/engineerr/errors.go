package engineerr

import "fmt"

// Kind classifies the taxonomy of handler/driver errors from spec §7.
type Kind string

const (
	KindConfig     Kind = "ConfigError"
	KindCredential Kind = "CredentialError"
	KindExternal   Kind = "ExternalError"
	KindCode       Kind = "CodeError"
	KindAgent      Kind = "AgentError"
	KindEngine     Kind = "EngineError"
)

// Error is a taxonomy-tagged error. Handlers return errors as strings to
// the driver (per spec §7 propagation rules), so Error() is the canonical
// surface; Kind is retained for hosts/tests that want to branch on it.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// MissingField reports a ConfigError for a required config field.
func MissingField(field string) error {
	return &Error{Kind: KindConfig, Msg: fmt.Sprintf("missing required field %q", field)}
}

// Config wraps an arbitrary configuration problem.
func Config(msg string) error {
	return &Error{Kind: KindConfig, Msg: msg}
}

// Credential wraps a credential-resolution failure.
func Credential(msg string) error {
	return &Error{Kind: KindCredential, Msg: msg}
}

// External wraps a failed call to an external system, tagging it with the
// source so messages read "HTTP Error: ...", "Slack API Error: ...", etc.
func External(source, msg string, cause error) error {
	return &Error{Kind: KindExternal, Msg: fmt.Sprintf("%s: %s", source, msg), Cause: cause}
}

// Code wraps a JS/Python runtime failure.
func Code(runtime, msg string) error {
	return &Error{Kind: KindCode, Msg: fmt.Sprintf("%s Error: %s", runtime, msg)}
}

// Agent wraps an agent-loop failure (unknown tool, iteration cap).
func Agent(msg string) error {
	return &Error{Kind: KindAgent, Msg: msg}
}

// Engine wraps a cancellation or persistence failure.
func Engine(msg string, cause error) error {
	return &Error{Kind: KindEngine, Msg: msg, Cause: cause}
}
