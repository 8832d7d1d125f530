// Package metric provides Prometheus metrics for Health QR Link.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: Scrape-time collectors backed by storage
//
// Metrics include QR issuance and verification counters, scan outcomes,
// request latency histograms and storage statistics.
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
