// Package logger provides structured logging for Health QR Link.
//
// This package wraps zap for high-performance structured logging:
//
//   - zap.go: Zap logger configuration and initialization
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Automatic masking of scanned QR codes and secrets
//   - Context propagation for request tracing
package logger
