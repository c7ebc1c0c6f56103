// Package httpclient builds the pooled, SSRF-guarded *http.Client used by
// the http-request node and any other handler that reaches out over HTTP
// (the openai/openrouter LLM clients, the MCP streamable-http client, the
// rss-feed-read handler). A Registry keeps named clients so a workflow can
// reuse a pre-configured client by name instead of rebuilding one per node.
package httpclient
