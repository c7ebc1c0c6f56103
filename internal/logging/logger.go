package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

type contextKey string

const contextKeyLogger contextKey = "logger"

// Logger wraps slog.Logger with workflow-specific chaining.
type Logger struct {
	logger *slog.Logger
}

// Config holds logging configuration.
type Config struct {
	Level         string
	Output        io.Writer
	Pretty        bool
	IncludeCaller bool
}

// DefaultConfig returns JSON-structured, info-level logging to stdout.
func DefaultConfig() Config {
	return Config{Level: "info", Output: os.Stdout}
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level), AddSource: cfg.IncludeCaller}

	var handler slog.Handler
	if cfg.Pretty {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithContext stores the logger on ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyLogger, l)
}

// FromContext retrieves the logger stashed by WithContext, or a default one.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKeyLogger).(*Logger); ok {
		return logger
	}
	return New(DefaultConfig())
}

func (l *Logger) WithWorkflowID(id string) *Logger {
	return &Logger{logger: l.logger.With(slog.String("workflow_id", id))}
}

func (l *Logger) WithExecutionID(id string) *Logger {
	return &Logger{logger: l.logger.With(slog.String("execution_id", id))}
}

func (l *Logger) WithNodeID(id string) *Logger {
	return &Logger{logger: l.logger.With(slog.String("node_id", id))}
}

func (l *Logger) WithNodeKind(kind string) *Logger {
	return &Logger{logger: l.logger.With(slog.String("node_kind", kind))}
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With(slog.Any(key, value))}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With(slog.Any("error", err))}
}

func (l *Logger) Debug(msg string) { l.logger.Debug(msg) }
func (l *Logger) Info(msg string)  { l.logger.Info(msg) }
func (l *Logger) Warn(msg string)  { l.logger.Warn(msg) }
func (l *Logger) Error(msg string) { l.logger.Error(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.logger.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logger.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logger.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logger.Error(fmt.Sprintf(format, args...)) }
