package httpclient

import (
	"fmt"
	"net/http"
	"sync"
)

// Registry keeps named http.Client instances so workflows can reference a
// pre-configured client (custom TLS settings, a tighter domain allowlist)
// by name instead of rebuilding one per node execution.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*http.Client
	sizes   map[string]int64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*http.Client),
		sizes:   make(map[string]int64),
	}
}

// Register builds a client from cfg and stores it under name.
func (r *Registry) Register(name string, cfg Config) error {
	if name == "" {
		return fmt.Errorf("httpclient: client name must not be empty")
	}

	client, err := New(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("httpclient: client %q already registered", name)
	}
	r.clients[name] = client
	r.sizes[name] = cfg.MaxResponseSize
	return nil
}

// Get returns the named client and its configured max response size.
func (r *Registry) Get(name string) (*http.Client, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, exists := r.clients[name]
	if !exists {
		return nil, 0, fmt.Errorf("httpclient: client %q not found", name)
	}
	return client, r.sizes[name], nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.clients[name]
	return exists
}
