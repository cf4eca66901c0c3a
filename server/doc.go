// Package server provides the optional STREAMING-mode HTTP surface: a
// unified server built on Gin with HTTP/2 and h2c support, exposing
// liveness, readiness, and metrics endpoints for a supervisor to poll
// while a streaming flow runs.
//
// It follows the rest of the runtime's component pattern: lifecycle
// management via Start/Stop, health reporting, and configurable
// middleware.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - Logging: Request/response logging with duration tracking
//   - CORS: Cross-origin resource sharing configuration
//   - RequestID: Request ID generation and propagation
//   - RateLimit: Token bucket rate limiting
//   - BodySize: Request body size limits
//   - Auth: JWT authentication middleware
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: Health check aggregation across registered components
//   - /info: Flow and build information
//   - /metrics: Go runtime memory and goroutine statistics as JSON
//   - /liveness: Kubernetes liveness probe
//   - /readiness: Kubernetes readiness probe
//   - /version: Build version information
package server
