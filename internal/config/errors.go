package config

import "errors"

var (
	ErrInvalidExecutionTime     = errors.New("config: MaxExecutionTime must not be negative")
	ErrInvalidNodeExecutionTime = errors.New("config: MaxNodeExecutionTime must not be negative")
	ErrInvalidMaxIterations     = errors.New("config: AgentMaxIterations must not be negative")
	ErrInvalidHTTPTimeout       = errors.New("config: HTTPTimeout must not be negative")
	ErrInvalidMaxRedirects      = errors.New("config: MaxHTTPRedirects must not be negative")
	ErrInvalidMaxResponseSize   = errors.New("config: MaxResponseSize must not be negative")
)
