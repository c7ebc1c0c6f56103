// Package engineerr defines the cross-cutting error taxonomy the driver
// uses to classify a failing node (spec §7): ConfigError, CredentialError,
// ExternalError, CodeError, AgentError, EngineError. Handlers construct
// these with the helpers below so error strings carry a stable prefix.
package engineerr
