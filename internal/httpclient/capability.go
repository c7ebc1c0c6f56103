package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/metrics"
)

// NetHTTPClient implements capability.HttpClient over a single pooled
// *http.Client, enforcing a response size cap and optionally recording
// call metrics.
type NetHTTPClient struct {
	client          *http.Client
	maxResponseSize int64
	metrics         *metrics.Provider
}

// NewNetHTTPClient wraps client. A maxResponseSize of 0 means unlimited.
func NewNetHTTPClient(client *http.Client, maxResponseSize int64, provider *metrics.Provider) *NetHTTPClient {
	return &NetHTTPClient{client: client, maxResponseSize: maxResponseSize, metrics: provider}
}

// Send implements capability.HttpClient.
func (c *NetHTTPClient) Send(ctx context.Context, method, url string, headers map[string]string, basicAuth *capability.BasicAuth, body []byte) (int, map[string]string, []byte, error) {
	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if basicAuth != nil {
		req.SetBasicAuth(basicAuth.User, basicAuth.Password)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordHTTPCall(ctx, method, url, 0, time.Since(start))
		}
		return 0, nil, nil, fmt.Errorf("httpclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if c.maxResponseSize > 0 {
		reader = io.LimitReader(resp.Body, c.maxResponseSize+1)
	}

	respBody, err := io.ReadAll(reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("httpclient: read response: %w", err)
	}
	if c.maxResponseSize > 0 && int64(len(respBody)) > c.maxResponseSize {
		return 0, nil, nil, fmt.Errorf("httpclient: response exceeds %d byte limit", c.maxResponseSize)
	}

	if c.metrics != nil {
		c.metrics.RecordHTTPCall(ctx, method, url, resp.StatusCode, time.Since(start))
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	return resp.StatusCode, respHeaders, respBody, nil
}
