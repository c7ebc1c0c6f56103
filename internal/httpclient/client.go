package httpclient

import (
	"fmt"
	"net/http"

	"github.com/flowloom/engine/internal/security"
)

// New builds an *http.Client from cfg: connection pooling per the teacher's
// builder, an SSRF-guarded RoundTripper, and a CheckRedirect that either
// refuses to follow redirects or re-validates each hop against the guard.
func New(cfg Config) (*http.Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		DisableKeepAlives:   cfg.DisableKeepAlives,
	}

	guard := security.NewSSRFGuard(cfg.Guard)

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &ssrfRoundTripper{next: transport, guard: guard},
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("httpclient: too many redirects (max %d)", cfg.MaxRedirects)
			}
			if err := guard.ValidateURL(req.URL.String()); err != nil {
				return fmt.Errorf("httpclient: redirect blocked: %w", err)
			}
			return nil
		}
	}

	return client, nil
}

// ssrfRoundTripper validates the request URL before every dial, including
// the initial request (redirects are re-checked separately via
// http.Client.CheckRedirect, which only sees the redirect chain).
type ssrfRoundTripper struct {
	next  http.RoundTripper
	guard *security.SSRFGuard
}

func (t *ssrfRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.guard.ValidateURL(req.URL.String()); err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return t.next.RoundTrip(req)
}
