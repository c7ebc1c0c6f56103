// Package capability declares the narrow external-service interfaces the
// engine consumes (spec §6): Store, HttpClient, LlmClient, McpClient,
// JsRunner, PyRunner, Clock, FeedParser, FileIO. Hosts wire concrete
// implementations; the engine core never imports a concrete transport.
package capability
