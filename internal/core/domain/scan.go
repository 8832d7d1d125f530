package domain

// ScanStatus is the outcome of resolving a scanned code against the registry.
type ScanStatus string

// Scan statuses.
const (
	ScanOK             ScanStatus = "ok"
	ScanInvalid        ScanStatus = "invalid"
	ScanExpired        ScanStatus = "expired"
	ScanMismatch       ScanStatus = "mismatch"
	ScanNotFound       ScanStatus = "not_found"
	ScanMissingCode    ScanStatus = "missing_code"
	ScanMissingPatient ScanStatus = "missing_patient"
)

// Message returns the text shown to the person who scanned the code.
// Messages never describe why a code failed verification.
func (s ScanStatus) Message() string {
	switch s {
	case ScanOK:
		return "Patient found"
	case ScanInvalid:
		return "Invalid QR code"
	case ScanExpired:
		return "This QR code has expired. Ask the patient for a new one."
	case ScanMismatch:
		return "QR code does not match the patient ID"
	case ScanNotFound:
		return "Patient not found"
	case ScanMissingCode:
		return "Missing QR code"
	case ScanMissingPatient:
		return "Missing patient ID"
	default:
		return "Unknown scan result"
	}
}

// Err maps a status to its domain error, or nil for ScanOK.
func (s ScanStatus) Err() error {
	switch s {
	case ScanOK:
		return nil
	case ScanExpired:
		return ErrQRExpired
	case ScanMismatch:
		return ErrQRMismatch
	case ScanNotFound:
		return ErrPatientNotFound
	case ScanMissingCode, ScanMissingPatient:
		return ErrMissingArgument.WithDetails(s.Message())
	default:
		return ErrQRInvalid
	}
}
