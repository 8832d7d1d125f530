package qrtoken

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"time"
)

// ErrEmptyPatientID is the cause of an EncodingError for an empty id.
var ErrEmptyPatientID = errors.New("qrtoken: empty patient id")

// EncodingError reports that a token could not be produced.
//
// The message is fixed; the cause is available through errors.Unwrap for
// logging but is never part of Error().
type EncodingError struct {
	cause error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return "failed to generate QR code data"
}

// Unwrap returns the underlying cause.
func (e *EncodingError) Unwrap() error {
	return e.cause
}

// Encode issues an extended token stamped with the codec clock.
func (c *Codec) Encode(patientID string) (string, error) {
	return c.EncodeAt(patientID, c.now())
}

// EncodeAt issues an extended token stamped with issuedAt.
func (c *Codec) EncodeAt(patientID string, issuedAt time.Time) (string, error) {
	if patientID == "" {
		return "", &EncodingError{cause: ErrEmptyPatientID}
	}

	ms := issuedAt.UnixMilli()
	return marshal(&Reference{
		PatientID:     patientID,
		Kind:          KindPatientProfile,
		IssuedAt:      ms,
		IntegrityHint: IntegrityHint(patientID, ms),
		SchemaVersion: SchemaVersion1,
	})
}

// EncodeMinimal issues a token without timestamp, hint or version.
// Identical ids always produce identical tokens.
func (c *Codec) EncodeMinimal(patientID string) (string, error) {
	if patientID == "" {
		return "", &EncodingError{cause: ErrEmptyPatientID}
	}
	return marshal(&Reference{
		PatientID: patientID,
		Kind:      KindPatientProfile,
	})
}

// marshal serializes a reference to its URL-safe wire form.
func marshal(ref *Reference) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Keep <, > and & literal so ids match what browsers emit.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ref); err != nil {
		return "", &EncodingError{cause: err}
	}
	raw := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return url.QueryEscape(base64.StdEncoding.EncodeToString(raw)), nil
}
