package core

import (
	"context"

	"resty.dev/v3"
)

// RateLimitConfig defines rate limiting parameters for an exchange protocol.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate for private endpoints.
	RequestsPerSecond int `json:"requests_per_second"`
	// Burst allows temporary exceeding of the sustained rate.
	Burst int `json:"burst"`
}

// Protocol defines the exchange-specific half of the client: it maps
// operations onto HTTP requests and HTTP responses back onto core types.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "coinbase").
	Name() string

	// BaseURL returns the API base URL for the given environment.
	BaseURL(sandbox bool) string

	// BuildRequest constructs an HTTP request for the specified operation.
	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// ParseResponse decodes the HTTP response into the operation's result type.
	ParseResponse(op Operation, resp *resty.Response) (any, error)

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation

	// RateLimits returns the documented rate limits of the exchange.
	RateLimits() RateLimitConfig
}

// Authenticator signs a request. requestPath includes the encoded query
// string and body is the exact payload that will be sent (nil when empty).
// The returned headers are attached to the outgoing request.
type Authenticator interface {
	Sign(method, requestPath string, body []byte) (map[string]string, error)
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(method, requestPath string, body []byte) (map[string]string, error)

// Sign calls f(method, requestPath, body).
func (f AuthenticatorFunc) Sign(method, requestPath string, body []byte) (map[string]string, error) {
	return f(method, requestPath, body)
}
