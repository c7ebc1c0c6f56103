// Package security provides SSRF (Server-Side Request Forgery) protection
// for every outbound URL the engine dials on a workflow author's behalf:
// the http-request node, the MCP streamable-http transport, and the RSS
// feed fetch. Network access is zero-trust by default — see config.Config.
package security
