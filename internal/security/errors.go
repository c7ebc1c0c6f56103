package security

import "errors"

// Sentinel errors for SSRF validation failures.
var (
	ErrURLNotAllowed    = errors.New("URL not allowed by security policy")
	ErrPrivateIPBlocked = errors.New("access to private IP blocked")
	ErrLocalhostBlocked = errors.New("access to localhost blocked")
	ErrMetadataBlocked  = errors.New("access to cloud metadata blocked")
	ErrInvalidProtocol  = errors.New("invalid or disallowed protocol")
)
