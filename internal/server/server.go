// Package server is the thin HTTP transport adapter (spec.md §1 scopes
// transport as out-of-scope core, specified only at interface): a
// net/http + stdlib ServeMux (Go 1.22+ method-pattern routing) surface over
// workflows, executions, and the Slack resume webhook. Every handler
// delegates immediately to driver.Driver/storage.Store; this package
// contains no engine logic of its own. Grounded on the teacher's
// pkg/server (server.go's middleware chain and route registration style).
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowloom/engine/internal/driver"
	"github.com/flowloom/engine/internal/logging"
)

// Config holds transport-level server configuration.
type Config struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	EnableCORS         bool
}

// DefaultConfig returns development-friendly server defaults.
func DefaultConfig() Config {
	return Config{
		Address:            ":8080",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,
		EnableCORS:         true,
	}
}

// Server is the HTTP API surface wrapping a Driver/Pool and a host-side
// WorkflowRegistry.
type Server struct {
	config     Config
	httpServer *http.Server
	logger     *logging.Logger
	health     *healthChecker

	driver   *driver.Driver
	pool     *driver.Pool
	registry *WorkflowRegistry
}

// New builds a Server. drv and pool must share the same underlying
// capability.Store; pool bounds concurrent execution submissions (spec
// §4.6.1).
func New(cfg Config, drv *driver.Driver, pool *driver.Pool, registry *WorkflowRegistry, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}
	if registry == nil {
		registry = NewWorkflowRegistry()
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		health:   newHealthChecker("flowloom-engine", "0.1.0"),
		driver:   drv,
		pool:     pool,
		registry: registry,
	}
	s.health.register("driver", 2*time.Second, true, func(ctx context.Context) error {
		if s.driver == nil {
			return fmt.Errorf("no driver wired")
		}
		return nil
	})

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.middlewareChain(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.health.readiness())
	mux.HandleFunc("GET /health/live", s.health.liveness())
	mux.HandleFunc("GET /health/ready", s.health.readiness())
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/workflows", s.handleCreateWorkflow)
	mux.HandleFunc("GET /api/v1/workflows", s.handleListWorkflows)
	mux.HandleFunc("GET /api/v1/workflows/{id}", s.handleGetWorkflow)
	mux.HandleFunc("PUT /api/v1/workflows/{id}", s.handleUpdateWorkflow)
	mux.HandleFunc("DELETE /api/v1/workflows/{id}", s.handleDeleteWorkflow)
	mux.HandleFunc("POST /api/v1/workflows/{id}/execute", s.handleExecuteByID)

	mux.HandleFunc("POST /api/v1/execute", s.handleExecuteInline)
	mux.HandleFunc("GET /api/v1/executions/{id}", s.handleGetExecution)
	mux.HandleFunc("POST /api/v1/executions/{id}/resume", s.handleResumeExecution)

	mux.HandleFunc("POST /webhooks/slack/interactive", s.handleSlackInteractive)
}

func (s *Server) middlewareChain(h http.Handler) http.Handler {
	if s.config.EnableCORS {
		h = s.corsMiddleware(h)
	}
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)
	return h
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("status", rw.status).
			WithField("durationMs", time.Since(start).Milliseconds()).
			Info("http request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithField("path", r.URL.Path).WithField("panic", fmt.Sprintf("%v", rec)).Error("panic recovered")
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Start runs the server until Shutdown is called or ListenAndServe fails.
func (s *Server) Start() error {
	s.logger.WithField("address", s.config.Address).Info("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and drains in-flight executions
// submitted through the Pool.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if s.pool != nil {
		done := make(chan struct{})
		go func() { s.pool.Wait(); close(done) }()
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request, maxSize int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	return io.ReadAll(r.Body)
}

func writeError(w http.ResponseWriter, logger *logging.Logger, code int, message string, err error) {
	fields := logger.WithField("statusCode", code)
	if err != nil {
		fields = fields.WithError(err)
	}
	fields.Error(message)

	body := map[string]interface{}{"success": false, "error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	writeJSON(w, code, body)
}
