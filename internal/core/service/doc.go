// Package service provides domain services for Health QR Link.
//
// Domain services contain pure business logic and orchestrate operations
// on domain models. They define interfaces for storage dependencies,
// allowing for dependency injection and testability.
//
// This package contains:
//
//   - QRService: issuing, verifying and rendering patient QR codes
//   - ResolverService: turning a scanned link into a patient view
//   - PatientService: registry CRUD and medical report history
//
// Services are stateless and thread-safe.
package service
