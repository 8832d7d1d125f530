package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validPatient() *Patient {
	return &Patient{
		ID:         "P123456001",
		Name:       "Asha Rao",
		Email:      "asha@example.com",
		BloodGroup: "O+",
		EmergencyContact: EmergencyContact{
			Name:     "Ravi Rao",
			Relation: "Brother",
			Phone:    "+91 98765 43210",
		},
	}
}

func TestNewPatient(t *testing.T) {
	p, err := NewPatient("Asha Rao", "asha@example.com")
	if err != nil {
		t.Fatalf("NewPatient() error = %v", err)
	}
	if !ValidatePatientIDFormat(p.ID) {
		t.Errorf("ID %q has the wrong shape", p.ID)
	}
	if p.CreatedAt == 0 || p.CreatedAt != p.UpdatedAt {
		t.Errorf("timestamps not initialized: %d / %d", p.CreatedAt, p.UpdatedAt)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestPatient_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Patient)
		wantErr string
	}{
		{"valid", func(p *Patient) {}, ""},
		{"missing id", func(p *Patient) { p.ID = "" }, "id is required"},
		{"blank name", func(p *Patient) { p.Name = "   " }, "name is required"},
		{"long name", func(p *Patient) { p.Name = strings.Repeat("a", 129) }, "name exceeds"},
		{"bad email", func(p *Patient) { p.Email = "nope" }, "email is malformed"},
		{"empty email allowed", func(p *Patient) { p.Email = "" }, ""},
		{"lowercase blood group", func(p *Patient) { p.BloodGroup = "ab-" }, ""},
		{"unknown blood group", func(p *Patient) { p.BloodGroup = "C+" }, "blood_group"},
		{"long contact phone", func(p *Patient) { p.EmergencyContact.Phone = strings.Repeat("1", 40) }, "phone exceeds"},
		{"empty report", func(p *Patient) { p.MedicalReports = []MedicalReport{{ID: "mr-1"}} }, "diagnosis or treatment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPatient()
			tt.mutate(p)
			err := p.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrPatientValidation) {
				t.Fatalf("Validate() error = %v, want ErrPatientValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPatient_Summary(t *testing.T) {
	p := validPatient()
	if got := p.Summary(); got != NoReportsSummary {
		t.Errorf("Summary() = %q, want %q", got, NoReportsSummary)
	}

	p.MedicalReports = []MedicalReport{
		{Diagnosis: "Common Cold", Treatment: "Rest"},
		{Diagnosis: "Sprained Ankle", Treatment: "Ice pack"},
	}
	want := "Last diagnosis: Sprained Ankle. Treatment: Ice pack"
	if got := p.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	p.MedicalReports = append(p.MedicalReports, MedicalReport{Diagnosis: "Allergy"})
	want = "Last diagnosis: Allergy. Treatment: N/A"
	if got := p.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	latest, ok := p.LatestReport()
	if !ok || latest.Diagnosis != "Allergy" {
		t.Errorf("LatestReport() = %+v, %v", latest, ok)
	}
}

func TestPatient_Clone(t *testing.T) {
	p := validPatient()
	p.MedicalReports = []MedicalReport{{ID: "mr-1", Diagnosis: "Flu"}}

	clone := p.Clone()
	clone.MedicalReports[0].Diagnosis = "changed"
	clone.Name = "changed"

	if p.MedicalReports[0].Diagnosis != "Flu" {
		t.Error("Clone shares the report slice")
	}
	if p.Name != "Asha Rao" {
		t.Error("Clone shares fields")
	}
}

func TestNewMedicalReport(t *testing.T) {
	r, err := NewMedicalReport(MedicalReport{Diagnosis: "Flu", Treatment: "Rest"})
	if err != nil {
		t.Fatalf("NewMedicalReport() error = %v", err)
	}
	if !strings.HasPrefix(r.ID, ReportIDPrefix) || len(r.ID) != len(ReportIDPrefix)+26 {
		t.Errorf("ID = %q", r.ID)
	}
	if r.ID != strings.ToLower(r.ID) {
		t.Errorf("ID should be lowercase: %q", r.ID)
	}

	other, _ := NewMedicalReport(MedicalReport{Diagnosis: "Flu"})
	if other.ID == r.ID {
		t.Error("report IDs should be unique")
	}
}

func TestPatient_Touch(t *testing.T) {
	p := validPatient()
	p.UpdatedAt = 1
	p.Touch()
	if p.UpdatedAt <= 1 || p.UpdatedAt > time.Now().UnixMilli() {
		t.Errorf("UpdatedAt = %d", p.UpdatedAt)
	}
}
