package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// PatientIDPrefix starts every generated patient ID.
const PatientIDPrefix = "P"

// PatientIDLength is P + 6 clock digits + 3 random digits.
const PatientIDLength = 10

// GeneratePatientID builds an ID from the last six digits of the
// millisecond clock and a three digit random suffix.
//
// IDs are short enough to read off a card. They are not unique by
// construction; callers must check for conflicts before storing.
func GeneratePatientID(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	clock := now.UnixMilli() % 1_000_000
	if clock < 0 {
		clock = -clock
	}
	return fmt.Sprintf("%s%06d%03d", PatientIDPrefix, clock, n.Int64()), nil
}

// ValidatePatientIDFormat reports whether id has the generated shape.
//
// Codes may carry any non-empty ID, including ones registered before this
// format existed, so this is only used for newly generated IDs.
func ValidatePatientIDFormat(id string) bool {
	if len(id) != PatientIDLength || id[:1] != PatientIDPrefix {
		return false
	}
	for i := 1; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
