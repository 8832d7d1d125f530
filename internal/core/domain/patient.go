package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Patient constraints.
const (
	MaxNameLength    = 128
	MaxEmailLength   = 254
	MaxPhoneLength   = 32
	MaxAddressLength = 512
	MaxReportText    = 4096
	MaxReports       = 500

	// ReportIDPrefix is the prefix for medical report IDs.
	ReportIDPrefix = "mr-"
)

// NoReportsSummary is the summary shown for a patient without reports.
const NoReportsSummary = "No recent medical reports."

// Recognized blood groups. An empty blood group means unknown.
var bloodGroups = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {},
	"AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

// Patient is a registry record addressed by a patient QR code.
type Patient struct {
	// ID is the patient identifier carried inside QR codes.
	ID string `json:"id"`

	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	BloodGroup string `json:"blood_group,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Address    string `json:"address,omitempty"`

	// Photo is an opaque reference (URL or data URI); it is never inspected.
	Photo string `json:"photo,omitempty"`

	EmergencyContact EmergencyContact `json:"emergency_contact"`

	// MedicalReports is ordered oldest first.
	MedicalReports []MedicalReport `json:"medical_reports,omitempty"`

	// CreatedAt is the registration timestamp (Unix milliseconds).
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the last modification timestamp (Unix milliseconds).
	UpdatedAt int64 `json:"updated_at"`
}

// EmergencyContact is the person to call for a patient.
type EmergencyContact struct {
	Name     string `json:"name,omitempty"`
	Relation string `json:"relation,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// MedicalReport is a single visit entry.
type MedicalReport struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	DoctorName string `json:"doctor_name"`
	Diagnosis  string `json:"diagnosis"`
	Treatment  string `json:"treatment"`
	FollowUp   string `json:"follow_up,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// NewPatient creates a Patient with a freshly generated ID.
func NewPatient(name, email string) (*Patient, error) {
	id, err := GeneratePatientID(time.Now())
	if err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()
	return &Patient{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewMedicalReport creates a report with a generated ID.
// Format: mr-{ulid_lowercase}.
func NewMedicalReport(r MedicalReport) (MedicalReport, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return MedicalReport{}, ErrInternalServer.WithCause(err)
	}
	r.ID = ReportIDPrefix + strings.ToLower(id.String())
	return r, nil
}

// Validate validates the patient fields against constraints.
// Returns a DomainError with code HQ-PAT-4001 if validation fails.
func (p *Patient) Validate() error {
	var violations []string

	if p.ID == "" {
		violations = append(violations, "id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		violations = append(violations, "name is required")
	}
	if len(p.Name) > MaxNameLength {
		violations = append(violations, "name exceeds 128 characters")
	}
	if len(p.Email) > MaxEmailLength {
		violations = append(violations, "email exceeds 254 characters")
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		violations = append(violations, "email is malformed")
	}
	if len(p.Phone) > MaxPhoneLength || len(p.EmergencyContact.Phone) > MaxPhoneLength {
		violations = append(violations, "phone exceeds 32 characters")
	}
	if len(p.Address) > MaxAddressLength {
		violations = append(violations, "address exceeds 512 characters")
	}
	if p.BloodGroup != "" {
		if _, ok := bloodGroups[strings.ToUpper(p.BloodGroup)]; !ok {
			violations = append(violations, "blood_group is not recognized")
		}
	}
	if len(p.MedicalReports) > MaxReports {
		violations = append(violations, "too many medical reports")
	}
	for _, r := range p.MedicalReports {
		if err := r.Validate(); err != nil {
			violations = append(violations, err.(*DomainError).Details)
			break
		}
	}

	if len(violations) > 0 {
		return ErrPatientValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Validate checks a single report.
func (r *MedicalReport) Validate() error {
	if r.Diagnosis == "" && r.Treatment == "" {
		return ErrPatientValidation.WithDetails("report needs a diagnosis or treatment")
	}
	for _, s := range []string{r.Diagnosis, r.Treatment, r.Notes} {
		if len(s) > MaxReportText {
			return ErrPatientValidation.WithDetails("report text exceeds 4096 characters")
		}
	}
	return nil
}

// Summary describes the latest report in one line.
func (p *Patient) Summary() string {
	if len(p.MedicalReports) == 0 {
		return NoReportsSummary
	}
	last := p.MedicalReports[len(p.MedicalReports)-1]
	return "Last diagnosis: " + orNA(last.Diagnosis) + ". Treatment: " + orNA(last.Treatment)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// LatestReport returns the most recent report, if any.
func (p *Patient) LatestReport() (MedicalReport, bool) {
	if len(p.MedicalReports) == 0 {
		return MedicalReport{}, false
	}
	return p.MedicalReports[len(p.MedicalReports)-1], true
}

// Touch updates UpdatedAt.
func (p *Patient) Touch() {
	p.UpdatedAt = time.Now().UnixMilli()
}

// Clone creates a deep copy of the patient.
func (p *Patient) Clone() *Patient {
	clone := *p
	if p.MedicalReports != nil {
		clone.MedicalReports = make([]MedicalReport, len(p.MedicalReports))
		copy(clone.MedicalReports, p.MedicalReports)
	}
	return &clone
}

// CreatedAtTime returns CreatedAt as time.Time.
func (p *Patient) CreatedAtTime() time.Time {
	return time.UnixMilli(p.CreatedAt)
}
