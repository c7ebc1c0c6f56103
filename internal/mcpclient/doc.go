// Package mcpclient implements capability.McpClient for the "streamable-http"
// Model Context Protocol transport: each call is a single JSON-RPC 2.0
// request POSTed to the server's endpoint, decoded either as a plain JSON
// response or as one "message" event of an SSE stream (the streamable-http
// transport may reply with either, per the MCP spec). Any other transport
// name registered on an McpServer yields an empty tool list, per spec §6.
package mcpclient
