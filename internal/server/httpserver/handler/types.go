package handler

import (
	"time"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/qrtoken"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics, which uses the
// Prometheus format, and PNG images).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// IssueTokenRequest is the request body for POST /qr/tokens.
type IssueTokenRequest struct {
	PatientID string `json:"patient_id"`
	Minimal   bool   `json:"minimal,omitempty"`
}

// IssueTokenResponse is the response body for POST /qr/tokens.
type IssueTokenResponse struct {
	PatientID string `json:"patient_id"`
	Token     string `json:"token"`
	ScanURL   string `json:"scan_url"`
	Shape     string `json:"shape"`

	// IssuedAt and ExpiresAt are Unix milliseconds; absent for minimal codes.
	IssuedAt  int64 `json:"issued_at,omitempty"`
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// VerifyTokenRequest is the request body for POST /qr/tokens/verify.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyTokenResponse is the response body for POST /qr/tokens/verify.
type VerifyTokenResponse struct {
	Valid     bool   `json:"valid"`
	PatientID string `json:"patient_id,omitempty"`
	Expired   bool   `json:"expired,omitempty"`
	IssuedAt  int64  `json:"issued_at,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ScanResponse is the data of a successful GET /patient/{id}?code=.
type ScanResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Patient *PatientResponse `json:"patient"`
	Summary string           `json:"summary"`
}

// ScanErrorDetails is attached to failed scans.
type ScanErrorDetails struct {
	Status    string `json:"status"`
	PatientID string `json:"patient_id,omitempty"`
}

// PatientResponse represents a patient in API responses.
type PatientResponse struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	Email            string                  `json:"email,omitempty"`
	Phone            string                  `json:"phone,omitempty"`
	BloodGroup       string                  `json:"blood_group,omitempty"`
	Gender           string                  `json:"gender,omitempty"`
	Address          string                  `json:"address,omitempty"`
	Photo            string                  `json:"photo,omitempty"`
	EmergencyContact domain.EmergencyContact `json:"emergency_contact"`
	MedicalReports   []domain.MedicalReport  `json:"medical_reports"`
	CreatedAt        int64                   `json:"created_at"`
	UpdatedAt        int64                   `json:"updated_at"`
}

// ListPatientsResponse is the response body for GET /patients.
type ListPatientsResponse struct {
	Items []PatientResponse `json:"items"`
	Total int               `json:"total"`
}

// RegisterPatientRequest is the request body for POST /patients.
type RegisterPatientRequest struct {
	ID               string                  `json:"id,omitempty"`
	Name             string                  `json:"name"`
	Email            string                  `json:"email,omitempty"`
	Phone            string                  `json:"phone,omitempty"`
	BloodGroup       string                  `json:"blood_group,omitempty"`
	Gender           string                  `json:"gender,omitempty"`
	Address          string                  `json:"address,omitempty"`
	Photo            string                  `json:"photo,omitempty"`
	EmergencyContact domain.EmergencyContact `json:"emergency_contact"`
}

// UpdatePatientRequest is the request body for PATCH /patients/{id}.
// Omitted fields are left unchanged.
type UpdatePatientRequest struct {
	Name             *string                  `json:"name,omitempty"`
	Email            *string                  `json:"email,omitempty"`
	Phone            *string                  `json:"phone,omitempty"`
	BloodGroup       *string                  `json:"blood_group,omitempty"`
	Gender           *string                  `json:"gender,omitempty"`
	Address          *string                  `json:"address,omitempty"`
	Photo            *string                  `json:"photo,omitempty"`
	EmergencyContact *domain.EmergencyContact `json:"emergency_contact,omitempty"`
}

// AddReportRequest is the request body for POST /patients/{id}/reports.
type AddReportRequest struct {
	Date       string `json:"date,omitempty"`
	DoctorName string `json:"doctor_name"`
	Diagnosis  string `json:"diagnosis"`
	Treatment  string `json:"treatment"`
	FollowUp   string `json:"follow_up,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func patientToResponse(p *domain.Patient) PatientResponse {
	reports := p.MedicalReports
	if reports == nil {
		reports = []domain.MedicalReport{}
	}
	return PatientResponse{
		ID:               p.ID,
		Name:             p.Name,
		Email:            p.Email,
		Phone:            p.Phone,
		BloodGroup:       p.BloodGroup,
		Gender:           p.Gender,
		Address:          p.Address,
		Photo:            p.Photo,
		EmergencyContact: p.EmergencyContact,
		MedicalReports:   reports,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func issuedToResponse(c *service.IssuedCode, maxAge time.Duration) IssueTokenResponse {
	resp := IssueTokenResponse{
		PatientID: c.PatientID,
		Token:     c.Token,
		ScanURL:   c.ScanURL,
		Shape:     c.Shape,
	}
	if !c.IssuedAt.IsZero() {
		resp.IssuedAt = c.IssuedAt.UnixMilli()
		resp.ExpiresAt = c.IssuedAt.Add(maxAge).UnixMilli()
	}
	return resp
}

func resultToResponse(res qrtoken.Result) VerifyTokenResponse {
	resp := VerifyTokenResponse{
		Valid:     res.Valid,
		PatientID: res.PatientID,
		Expired:   res.Expired,
		Version:   res.Version,
	}
	if !res.IssuedAt.IsZero() {
		resp.IssuedAt = res.IssuedAt.UnixMilli()
	}
	return resp
}
