// Package domain defines the core domain models for Health QR Link.
//
// Domain models are pure value objects and entities without any
// IO dependencies or framework coupling. This package contains:
//
//   - Patient: registry record with medical report history
//   - PatientID: identifier generation and format checks
//   - ScanStatus: outcome of resolving a scanned QR code
//   - Errors: domain-specific error definitions
package domain
