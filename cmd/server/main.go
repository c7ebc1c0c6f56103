// Command server starts the flowloom workflow engine HTTP API.
//
// Usage:
//
//	server [flags]
//
// Flags:
//
//	-addr string
//	    Server address (default ":8080")
//	-allow-http
//	    Sets Config.AllowHTTP (default false); no component reads it, and
//	    public http/https destinations are reachable either way
//	-allow-private-ips
//	    Permit requests to private and loopback addresses (default false);
//	    link-local and cloud-metadata addresses stay blocked
//	-postgres-dsn string
//	    Postgres DSN for the persistent Store; empty uses an in-memory Store
//	-max-concurrency int
//	    Maximum number of executions running concurrently (default 16)
//
// The server exposes workflow CRUD, execution, resume, and a Slack
// interactive-webhook resume path; see internal/server for the full route
// table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/config"
	"github.com/flowloom/engine/internal/driver"
	"github.com/flowloom/engine/internal/handler"
	"github.com/flowloom/engine/internal/httpclient"
	"github.com/flowloom/engine/internal/logging"
	"github.com/flowloom/engine/internal/mcpclient"
	"github.com/flowloom/engine/internal/metrics"
	"github.com/flowloom/engine/internal/observer"
	"github.com/flowloom/engine/internal/security"
	"github.com/flowloom/engine/internal/server"
	"github.com/flowloom/engine/internal/storage"
)

func main() {
	addr := flag.String("addr", ":8080", "server address")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	allowHTTP := flag.Bool("allow-http", false, "sets Config.AllowHTTP; not read by any component")
	allowPrivateIPs := flag.Bool("allow-private-ips", false, "permit requests to private and loopback addresses")
	maxConcurrency := flag.Int("max-concurrency", 16, "maximum concurrently running executions")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres DSN for the Store; empty uses an in-memory Store")
	pyInterpreter := flag.String("python-interpreter", "python3", "python executable used by the code node's python branch")
	flag.Parse()

	logger := logging.New(logging.DefaultConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	cfg.AllowHTTP = *allowHTTP
	cfg.AllowPrivateIPs = *allowPrivateIPs
	cfg.AllowLocalhost = *allowPrivateIPs

	metricsProvider, err := metrics.NewProvider(ctx, metrics.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize metrics: %v\n", err)
		os.Exit(1)
	}

	store, err := buildStore(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize store: %v\n", err)
		os.Exit(1)
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.MaxResponseSize = cfg.MaxResponseSize
	httpCfg.Guard = security.GuardConfig{
		AllowedSchemes:     []string{"http", "https"},
		AllowPrivateIPs:    cfg.AllowPrivateIPs,
		AllowLocalhost:     cfg.AllowLocalhost,
		AllowLinkLocal:     cfg.AllowLinkLocal,
		AllowCloudMetadata: cfg.AllowCloudMetadata,
		AllowedDomains:     cfg.AllowedDomains,
	}
	rawClient, err := httpclient.New(httpCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build http client: %v\n", err)
		os.Exit(1)
	}
	httpCap := httpclient.NewNetHTTPClient(rawClient, httpCfg.MaxResponseSize, metricsProvider)

	caps := handler.Capabilities{
		Store:      store,
		HTTPClient: httpCap,
		LlmClient:  capability.OpenAILlmClient{},
		McpClient:  mcpclient.NewStreamableHTTPClient(rawClient),
		JsRunner:   capability.GojaRunner{},
		PyRunner:   capability.SubprocessPyRunner{Interpreter: *pyInterpreter},
		Clock:      capability.SystemClock{},
		FeedParser: capability.XMLFeedParser{},
		FileIO:     capability.OSFileIO{},
	}

	registry := handler.NewDefaultRegistry()
	observers := observer.NewManager()
	observers.Register(metrics.NewTelemetryObserver(metricsProvider))

	drv := driver.New(registry, caps, cfg, store, observers, metricsProvider, logger)
	pool := driver.NewPool(drv, *maxConcurrency)

	srv := server.New(server.Config{
		Address:            *addr,
		ReadTimeout:        *readTimeout,
		WriteTimeout:       *writeTimeout,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,
		EnableCORS:         true,
	}, drv, pool, server.NewWorkflowRegistry(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "graceful shutdown failed: %v\n", err)
			os.Exit(1)
		}
	}
}

// buildStore returns a Postgres-backed Store when dsn is non-empty, else an
// in-memory Store suitable for local development and tests.
func buildStore(ctx context.Context, dsn string) (capability.Store, error) {
	if dsn == "" {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewPostgresStore(ctx, dsn)
}
