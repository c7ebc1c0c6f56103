// Package storage implements capability.Store: the credential, MCP server
// registration, and execution-record persistence the engine needs at
// runtime. MemoryStore is an in-process map, grounded on the teacher's
// InMemoryStore; PostgresStore is a pgx/v5-backed implementation for
// production deployments.
package storage
