package service

import (
	"context"
	"time"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

// ScanOutcome is the result of resolving a scanned link.
type ScanOutcome struct {
	Status domain.ScanStatus

	// PatientID is the ID named by the link path.
	PatientID string

	// Patient and Summary are set only for ScanOK.
	Patient *domain.Patient
	Summary string

	// IssuedAt is when the code was issued; zero for minimal codes or
	// codes that failed verification.
	IssuedAt time.Time
}

// Message returns the user-facing text for the outcome.
func (o *ScanOutcome) Message() string {
	return o.Status.Message()
}

// ResolverService turns a scanned /patient/{id}?code= link into a patient view.
type ResolverService struct {
	qr       *QRService
	patients PatientRepository
	recorder Recorder
}

// NewResolverService creates a new ResolverService. rec may be nil.
func NewResolverService(qr *QRService, patients PatientRepository, rec Recorder) *ResolverService {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &ResolverService{qr: qr, patients: patients, recorder: rec}
}

// Resolve checks code against pathID and loads the patient.
//
// Checks run in order: code present, path ID present, code verifies, code
// names the path ID, code not expired, patient registered. Every token
// outcome is returned as a status; only storage failures return an error.
func (s *ResolverService) Resolve(ctx context.Context, pathID, code string) (*ScanOutcome, error) {
	out, err := s.resolve(ctx, pathID, code)
	if err != nil {
		return nil, err
	}

	s.recorder.IncScan(string(out.Status))
	logger.L(ctx).Info("qr scan resolved",
		"patient_id", pathID,
		"status", string(out.Status))
	return out, nil
}

func (s *ResolverService) resolve(ctx context.Context, pathID, code string) (*ScanOutcome, error) {
	out := &ScanOutcome{PatientID: pathID}

	if code == "" {
		out.Status = domain.ScanMissingCode
		return out, nil
	}
	if pathID == "" {
		out.Status = domain.ScanMissingPatient
		return out, nil
	}

	res := s.qr.Verify(ctx, code)
	if !res.Valid {
		out.Status = domain.ScanInvalid
		return out, nil
	}
	out.IssuedAt = res.IssuedAt

	// A valid code for someone else is still rejected.
	if res.PatientID != pathID {
		out.Status = domain.ScanMismatch
		return out, nil
	}
	if res.Expired {
		out.Status = domain.ScanExpired
		return out, nil
	}

	p, ok, err := s.patients.Lookup(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if !ok {
		out.Status = domain.ScanNotFound
		return out, nil
	}

	out.Status = domain.ScanOK
	out.Patient = p
	out.Summary = p.Summary()
	return out, nil
}
