// Package httpserver serves the Health QR Link HTTP API.
//
// NewRouter wraps the handler package in the middleware chain
//
//	Recover -> RequestID -> CORS -> RateLimit -> Metrics -> Audit -> handler
//
// and mounts /health, /ready and /metrics behind a lighter chain so that
// probes are never rate limited.
package httpserver
