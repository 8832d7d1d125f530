package qrtoken

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"
)

// Reason classifies a verification outcome for logs and metrics.
type Reason string

// Verification reasons.
const (
	ReasonNone               Reason = ""
	ReasonExpired            Reason = "expired"
	ReasonTooLong            Reason = "too_long"
	ReasonBadEscape          Reason = "bad_escape"
	ReasonBadEncoding        Reason = "bad_encoding"
	ReasonBadPayload         Reason = "bad_payload"
	ReasonMissingPatient     Reason = "missing_patient"
	ReasonWrongKind          Reason = "wrong_kind"
	ReasonUnsupportedVersion Reason = "unsupported_version"
	ReasonIncomplete         Reason = "incomplete"
	ReasonIntegrityMismatch  Reason = "integrity_mismatch"
)

// Result is the outcome of Verify.
type Result struct {
	Valid     bool
	PatientID string
	Expired   bool

	// IssuedAt is zero for minimal tokens.
	IssuedAt time.Time
	Version  string

	Reason Reason
}

func invalid(reason Reason) Result {
	return Result{Reason: reason}
}

// wireReference mirrors Reference with presence tracking for optional fields.
type wireReference struct {
	PatientID     string  `json:"patientId"`
	Kind          *string `json:"type"`
	IssuedAt      *int64  `json:"timestamp"`
	IntegrityHint *string `json:"signature"`
	SchemaVersion *string `json:"version"`
}

// Verify runs the verification pipeline on a scanned token.
//
// Steps: length guard, URL unescape, base64 decode, JSON parse, schema,
// version dispatch with integrity check, expiry. The first failing step
// yields Valid=false.
func (c *Codec) Verify(token string) Result {
	if len(token) > c.maxTokenLength {
		return invalid(ReasonTooLong)
	}

	w, reason := decode(token)
	if reason != ReasonNone {
		return invalid(reason)
	}

	if w.PatientID == "" {
		return invalid(ReasonMissingPatient)
	}
	if w.Kind == nil || *w.Kind != KindPatientProfile {
		return invalid(ReasonWrongKind)
	}

	var version string
	if w.SchemaVersion != nil {
		version = *w.SchemaVersion
	}

	switch version {
	case SchemaVersion1:
		if w.IssuedAt == nil || *w.IssuedAt <= 0 || w.IntegrityHint == nil {
			return invalid(ReasonIncomplete)
		}
		if !hintMatches(w.PatientID, *w.IssuedAt, *w.IntegrityHint) {
			return invalid(ReasonIntegrityMismatch)
		}
	case "":
		// Shapes issued before versioning. A non-empty hint still has to
		// match, and it is meaningless without a timestamp.
		if w.IntegrityHint != nil && *w.IntegrityHint != "" {
			if w.IssuedAt == nil {
				return invalid(ReasonIncomplete)
			}
			if !hintMatches(w.PatientID, *w.IssuedAt, *w.IntegrityHint) {
				return invalid(ReasonIntegrityMismatch)
			}
		}
	default:
		return invalid(ReasonUnsupportedVersion)
	}

	res := Result{
		Valid:     true,
		PatientID: w.PatientID,
		Version:   version,
	}

	if w.IssuedAt != nil && *w.IssuedAt != 0 {
		res.IssuedAt = time.UnixMilli(*w.IssuedAt)
		// Compare against the cutoff; now-issuedAt overflows for
		// timestamps near MinInt64.
		cutoff := c.now().UnixMilli() - c.maxAge.Milliseconds()
		if *w.IssuedAt < cutoff {
			res.Expired = true
			res.Reason = ReasonExpired
		}
	}

	return res
}

// Inspect decodes a token without schema, integrity or expiry checks.
// It is intended for diagnostics; use Verify for decisions.
func (c *Codec) Inspect(token string) (*Reference, error) {
	if len(token) > c.maxTokenLength {
		return nil, errors.New("qrtoken: token too long")
	}
	w, reason := decode(token)
	if reason != ReasonNone {
		return nil, errors.New("qrtoken: " + string(reason))
	}

	ref := &Reference{PatientID: w.PatientID}
	if w.Kind != nil {
		ref.Kind = *w.Kind
	}
	if w.IssuedAt != nil {
		ref.IssuedAt = *w.IssuedAt
	}
	if w.IntegrityHint != nil {
		ref.IntegrityHint = *w.IntegrityHint
	}
	if w.SchemaVersion != nil {
		ref.SchemaVersion = *w.SchemaVersion
	}
	return ref, nil
}

// decode undoes the three wire layers.
func decode(token string) (*wireReference, Reason) {
	unescaped, err := url.PathUnescape(token)
	if err != nil {
		return nil, ReasonBadEscape
	}

	// Accept unpadded input the way browsers' atob does.
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(unescaped, "="))
	if err != nil || len(raw) == 0 {
		return nil, ReasonBadEncoding
	}

	// Field names are matched exactly; struct decoding would fold case.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, ReasonBadPayload
	}

	var w wireReference
	for _, f := range []struct {
		key string
		dst any
	}{
		{"patientId", &w.PatientID},
		{"type", &w.Kind},
		{"timestamp", &w.IssuedAt},
		{"signature", &w.IntegrityHint},
		{"version", &w.SchemaVersion},
	} {
		v, ok := fields[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return nil, ReasonBadPayload
		}
	}
	return &w, ReasonNone
}

func hintMatches(patientID string, issuedAt int64, hint string) bool {
	expected := IntegrityHint(patientID, issuedAt)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(hint)) == 1
}
