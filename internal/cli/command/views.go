package command

import (
	"time"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/server/httpserver/handler"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/qrtoken"
)

// Views carry json, yaml and table tags so that every output format
// uses the same field names.

type tokenView struct {
	PatientID string     `json:"patient_id" yaml:"patient_id"`
	Shape     string     `json:"shape" yaml:"shape"`
	IssuedAt  *time.Time `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty" table:"wide"`
	Token     string     `json:"token" yaml:"token"`
	ScanURL   string     `json:"scan_url" yaml:"scan_url"`
	File      string     `json:"file,omitempty" yaml:"file,omitempty"`
}

type verifyView struct {
	Valid     bool       `json:"valid" yaml:"valid"`
	PatientID string     `json:"patient_id,omitempty" yaml:"patient_id,omitempty"`
	Expired   bool       `json:"expired" yaml:"expired"`
	IssuedAt  *time.Time `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	Version   string     `json:"version,omitempty" yaml:"version,omitempty"`
	Reason    string     `json:"reason,omitempty" yaml:"reason,omitempty"`
}

type inspectView struct {
	PatientID     string     `json:"patient_id" yaml:"patient_id"`
	Kind          string     `json:"type" yaml:"type"`
	IssuedAt      *time.Time `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	IntegrityHint string     `json:"integrity_hint,omitempty" yaml:"integrity_hint,omitempty"`
	Version       string     `json:"version,omitempty" yaml:"version,omitempty"`
	Minimal       bool       `json:"minimal" yaml:"minimal"`
}

type contactView struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

type reportView struct {
	ID         string `json:"id" yaml:"id"`
	Date       string `json:"date" yaml:"date"`
	DoctorName string `json:"doctor_name" yaml:"doctor_name"`
	Diagnosis  string `json:"diagnosis" yaml:"diagnosis"`
	Treatment  string `json:"treatment" yaml:"treatment"`
	FollowUp   string `json:"follow_up,omitempty" yaml:"follow_up,omitempty" table:"wide"`
	Notes      string `json:"notes,omitempty" yaml:"notes,omitempty" table:"wide"`
}

type patientView struct {
	ID               string       `json:"id" yaml:"id"`
	Name             string       `json:"name" yaml:"name"`
	Email            string       `json:"email,omitempty" yaml:"email,omitempty"`
	Phone            string       `json:"phone,omitempty" yaml:"phone,omitempty"`
	BloodGroup       string       `json:"blood_group,omitempty" yaml:"blood_group,omitempty"`
	Gender           string       `json:"gender,omitempty" yaml:"gender,omitempty" table:"wide"`
	Address          string       `json:"address,omitempty" yaml:"address,omitempty" table:"wide"`
	EmergencyContact *contactView `json:"emergency_contact,omitempty" yaml:"emergency_contact,omitempty" table:"-"`
	MedicalReports   []reportView `json:"medical_reports" yaml:"medical_reports"`
	CreatedAt        time.Time    `json:"created_at" yaml:"created_at" table:"wide"`
	UpdatedAt        time.Time    `json:"updated_at" yaml:"updated_at"`
}

type scanView struct {
	Status    string       `json:"status" yaml:"status"`
	Message   string       `json:"message" yaml:"message"`
	PatientID string       `json:"patient_id,omitempty" yaml:"patient_id,omitempty"`
	Summary   string       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Patient   *patientView `json:"patient,omitempty" yaml:"patient,omitempty" table:"-"`
}

func millis(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func patientToView(p *handler.PatientResponse) patientView {
	v := patientView{
		ID:             p.ID,
		Name:           p.Name,
		Email:          p.Email,
		Phone:          p.Phone,
		BloodGroup:     p.BloodGroup,
		Gender:         p.Gender,
		Address:        p.Address,
		MedicalReports: make([]reportView, 0, len(p.MedicalReports)),
		CreatedAt:      time.UnixMilli(p.CreatedAt).UTC(),
		UpdatedAt:      time.UnixMilli(p.UpdatedAt).UTC(),
	}
	if ec := p.EmergencyContact; ec.Name != "" || ec.Phone != "" || ec.Relation != "" {
		v.EmergencyContact = &contactView{Name: ec.Name, Relation: ec.Relation, Phone: ec.Phone}
	}
	for _, r := range p.MedicalReports {
		v.MedicalReports = append(v.MedicalReports, reportToView(r))
	}
	return v
}

func reportToView(r domain.MedicalReport) reportView {
	return reportView{
		ID:         r.ID,
		Date:       r.Date,
		DoctorName: r.DoctorName,
		Diagnosis:  r.Diagnosis,
		Treatment:  r.Treatment,
		FollowUp:   r.FollowUp,
		Notes:      r.Notes,
	}
}

func resultToView(res qrtoken.Result) verifyView {
	return verifyView{
		Valid:     res.Valid,
		PatientID: res.PatientID,
		Expired:   res.Expired,
		IssuedAt:  timePtr(res.IssuedAt),
		Version:   res.Version,
		Reason:    string(res.Reason),
	}
}

func referenceToView(ref *qrtoken.Reference) inspectView {
	return inspectView{
		PatientID:     ref.PatientID,
		Kind:          ref.Kind,
		IssuedAt:      millis(ref.IssuedAt),
		IntegrityHint: ref.IntegrityHint,
		Version:       ref.SchemaVersion,
		Minimal:       ref.IsMinimal(),
	}
}
