// Package logging provides structured logging with context propagation for
// the workflow engine, built on the standard library's log/slog.
package logging
