package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form HQ-<AREA>-<NNNN>; the last four digits start with the
// HTTP status class the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "HQ-PAT-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// QR Code Errors (QR)
// ============================================================================

var (
	// ErrQREncoding indicates a QR payload could not be produced.
	ErrQREncoding = NewDomainError("HQ-QR-5000", "failed to generate QR code data")

	// ErrQRInvalid indicates a scanned code failed verification.
	ErrQRInvalid = NewDomainError("HQ-QR-4000", "invalid QR code")

	// ErrQRExpired indicates a scanned code is older than the allowed age.
	ErrQRExpired = NewDomainError("HQ-QR-4010", "QR code expired")

	// ErrQRMismatch indicates the code names a different patient than the URL.
	ErrQRMismatch = NewDomainError("HQ-QR-4030", "QR code does not match the patient ID")
)

// ============================================================================
// Patient Errors (PAT)
// ============================================================================

var (
	// ErrPatientNotFound indicates no patient is registered under the id.
	ErrPatientNotFound = NewDomainError("HQ-PAT-4040", "patient not found")

	// ErrPatientConflict indicates the patient id is already registered.
	ErrPatientConflict = NewDomainError("HQ-PAT-4090", "patient id conflict")

	// ErrPatientValidation indicates patient data validation failed.
	ErrPatientValidation = NewDomainError("HQ-PAT-4001", "patient validation failed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("HQ-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("HQ-SYS-5001", "storage error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	ErrServiceUnavailable = NewDomainError("HQ-SYS-5030", "service unavailable")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("HQ-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("HQ-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("HQ-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("HQ-ARG-1002", "missing required argument")
)
