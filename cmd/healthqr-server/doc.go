// Package main provides the entry point for healthqr-server.
//
// The server issues and verifies patient QR codes and serves the
// patient profile API:
//
//   - POST /qr/tokens issues a token and scan link
//   - GET /patient/{id}?code=... resolves a scanned link
//   - /patients manages patient records and medical reports
//   - /health, /ready and /metrics serve operators
//
// Usage:
//
//	healthqr-server [flags]
//	healthqr-server --config /etc/healthqr/server.yaml
//
// Settings come from the defaults, then the config file, then
// HEALTHQR_* environment variables. Editing the file at runtime
// changes the log level without a restart.
package main
