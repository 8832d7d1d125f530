package qrtoken

import (
	"encoding/base64"
	"strconv"
	"time"
)

// KindPatientProfile is the only kind this package issues or accepts.
const KindPatientProfile = "patient_profile"

// SchemaVersion1 marks the extended, checksummed shape.
const SchemaVersion1 = "1.0"

// IntegrityHintLength is the length of the integrity hint in characters.
const IntegrityHintLength = 16

// Reference is the record carried inside a token.
//
// Field order is the wire order and must not change.
type Reference struct {
	PatientID string `json:"patientId"`
	Kind      string `json:"type"`

	// IssuedAt is milliseconds since the Unix epoch; zero in the minimal shape.
	IssuedAt int64 `json:"timestamp,omitempty"`

	// IntegrityHint travels as "signature" for compatibility with tokens
	// already printed on patient cards. It is not a signature.
	IntegrityHint string `json:"signature,omitempty"`

	SchemaVersion string `json:"version,omitempty"`
}

// IsMinimal reports whether the reference carries neither timestamp nor hint.
func (r *Reference) IsMinimal() bool {
	return r.IssuedAt == 0 && r.IntegrityHint == "" && r.SchemaVersion == ""
}

// IssuedTime returns IssuedAt as a time.Time, or the zero time when absent.
func (r *Reference) IssuedTime() time.Time {
	if r.IssuedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.IssuedAt)
}

// IntegrityHint derives the weak checksum for a patient id and issue time.
//
// The result is a pure function of its arguments.
func IntegrityHint(patientID string, issuedAtMillis int64) string {
	base := patientID + ":" + strconv.FormatInt(issuedAtMillis, 10) + ":" + KindPatientProfile
	encoded := base64.StdEncoding.EncodeToString([]byte(base))
	if len(encoded) < IntegrityHintLength {
		return encoded
	}
	return encoded[:IntegrityHintLength]
}
