package middleware

import (
	"log/slog"
	"net/http"
)

// Middleware represents a middleware function
type Middleware func(http.Handler) http.Handler

// Chain represents a middleware chain
type Chain struct {
	middlewares []Middleware
}

// New creates a new middleware chain
func New(middlewares ...Middleware) Chain {
	return Chain{middlewares: middlewares}
}

// Then adds more middleware to the chain
func (c Chain) Then(middlewares ...Middleware) Chain {
	return Chain{middlewares: append(c.middlewares, middlewares...)}
}

// Handler applies all middleware in the chain to the given handler
func (c Chain) Handler(handler http.Handler) http.Handler {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}

	return handler
}

// Set contains all configured middleware for easy composition
type Set struct {
	TelemetryBlocker Middleware
	Logging          Middleware
	Metrics          Middleware
	Credential       Middleware
}

// NewSet creates a complete set of middleware with proper dependencies
func NewSet(logger *slog.Logger) Set {
	return Set{
		TelemetryBlocker: NewTelemetryBlockerMiddleware(logger),
		Logging:          NewLoggingMiddleware(logger),
		Metrics:          NewMetricsMiddleware(),
		Credential:       NewCredentialMiddleware(logger),
	}
}

// GatewayChain returns the middleware chain for the proxied endpoints
func (s Set) GatewayChain() Chain {
	return New(
		s.TelemetryBlocker, // swallow client telemetry first
		s.Logging,          // log requests second
		s.Metrics,          // count what gets through
		s.Credential,       // reject credential-less requests last
	)
}

// HealthChain returns the middleware chain for health endpoints (no credential check)
func (s Set) HealthChain() Chain {
	return New(
		s.Logging,
		s.Metrics,
	)
}
