package httpclient

import (
	"fmt"
	"time"

	"github.com/flowloom/engine/internal/security"
)

// Config controls one named http.Client: connection pooling, redirect
// policy, response size limiting, and the SSRF guard applied to every
// request (including redirect targets).
type Config struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	DisableKeepAlives   bool

	FollowRedirects bool
	MaxRedirects    int
	MaxResponseSize int64

	Guard security.GuardConfig
}

// DefaultConfig returns a Config with the defaults the teacher's builder
// applies: a 30s timeout, modest pooling, redirects followed up to 5 hops,
// and a 10MB response cap.
func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     0,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		FollowRedirects:     true,
		MaxRedirects:        5,
		MaxResponseSize:     10 * 1024 * 1024,
	}
}

// ApplyDefaults fills zero-valued fields from DefaultConfig, leaving
// explicitly set fields untouched.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = d.MaxIdleConns
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = d.MaxIdleConnsPerHost
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = d.IdleConnTimeout
	}
	if c.TLSHandshakeTimeout == 0 {
		c.TLSHandshakeTimeout = d.TLSHandshakeTimeout
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = d.MaxRedirects
	}
	if c.MaxResponseSize == 0 {
		c.MaxResponseSize = d.MaxResponseSize
	}
}

// Validate rejects a Config with negative durations or sizes.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("httpclient: timeout must not be negative")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("httpclient: max redirects must not be negative")
	}
	if c.MaxResponseSize < 0 {
		return fmt.Errorf("httpclient: max response size must not be negative")
	}
	return nil
}
