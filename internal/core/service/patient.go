package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
)

// PatientRepository defines the storage interface for patient records.
type PatientRepository interface {
	// Create stores a new patient; ErrPatientConflict if the ID is taken.
	Create(ctx context.Context, p *domain.Patient) error

	// Get retrieves a patient; ErrPatientNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Patient, error)

	// Lookup retrieves a patient, reporting absence through the bool.
	Lookup(ctx context.Context, id string) (*domain.Patient, bool, error)

	// Update replaces an existing patient; ErrPatientNotFound if absent.
	Update(ctx context.Context, p *domain.Patient) error

	// Delete removes a patient.
	Delete(ctx context.Context, id string) error

	// List returns all patients in ID order.
	List(ctx context.Context) ([]*domain.Patient, error)

	// Count returns the number of stored patients.
	Count(ctx context.Context) (int, error)
}

// Recorder receives service-level counters. *metric.Registry implements it.
type Recorder interface {
	IncTokenIssued(shape string)
	ObserveVerification(valid bool, reason string)
	IncScan(status string)
	IncPatientRegistered()
	IncReportAdded()
}

type nopRecorder struct{}

func (nopRecorder) IncTokenIssued(string)             {}
func (nopRecorder) ObserveVerification(bool, string) {}
func (nopRecorder) IncScan(string)                    {}
func (nopRecorder) IncPatientRegistered()             {}
func (nopRecorder) IncReportAdded()                   {}

// maxIDAttempts bounds retries when a generated patient ID collides.
const maxIDAttempts = 5

// lockStripes is the number of per-patient mutation locks. Power of two.
const lockStripes = 64

// PatientService handles registry operations.
//
// Read-modify-write operations on one patient (Update, AddReport, Delete)
// are serialised through a striped lock keyed by patient ID.
type PatientService struct {
	repo     PatientRepository
	recorder Recorder
	now      func() time.Time
	locks    [lockStripes]sync.Mutex
}

// NewPatientService creates a new PatientService. rec may be nil.
func NewPatientService(repo PatientRepository, rec Recorder) *PatientService {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &PatientService{repo: repo, recorder: rec, now: time.Now}
}

// lock acquires the stripe guarding id and returns its release func.
func (s *PatientService) lock(id string) func() {
	mu := &s.locks[murmur3.Sum64([]byte(id))&(lockStripes-1)]
	mu.Lock()
	return mu.Unlock
}

// RegisterPatientRequest contains parameters for registration.
type RegisterPatientRequest struct {
	ID               string // Optional; generated when empty
	Name             string // Required
	Email            string
	Phone            string
	BloodGroup       string
	Gender           string
	Address          string
	Photo            string
	EmergencyContact domain.EmergencyContact
}

// Register creates a patient record.
//
// When no ID is supplied one is generated, retrying on collision.
func (s *PatientService) Register(ctx context.Context, req *RegisterPatientRequest) (*domain.Patient, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, domain.ErrMissingArgument.WithDetails("name is required")
	}

	now := s.now()
	p := &domain.Patient{
		ID:               req.ID,
		Name:             strings.TrimSpace(req.Name),
		Email:            strings.TrimSpace(req.Email),
		Phone:            req.Phone,
		BloodGroup:       strings.ToUpper(req.BloodGroup),
		Gender:           req.Gender,
		Address:          req.Address,
		Photo:            req.Photo,
		EmergencyContact: req.EmergencyContact,
		CreatedAt:        now.UnixMilli(),
		UpdatedAt:        now.UnixMilli(),
	}

	generated := p.ID == ""
	for attempt := 0; ; attempt++ {
		if generated {
			id, err := domain.GeneratePatientID(s.now())
			if err != nil {
				return nil, err
			}
			p.ID = id
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}

		err := s.repo.Create(ctx, p)
		if err == nil {
			break
		}
		if !generated || !errors.Is(err, domain.ErrPatientConflict) || attempt+1 >= maxIDAttempts {
			return nil, err
		}
	}

	s.recorder.IncPatientRegistered()
	return p.Clone(), nil
}

// Get returns a patient by ID.
func (s *PatientService) Get(ctx context.Context, id string) (*domain.Patient, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("patient id is required")
	}
	return s.repo.Get(ctx, id)
}

// UpdatePatientRequest carries the mutable profile fields.
// Nil fields are left unchanged.
type UpdatePatientRequest struct {
	Name             *string
	Email            *string
	Phone            *string
	BloodGroup       *string
	Gender           *string
	Address          *string
	Photo            *string
	EmergencyContact *domain.EmergencyContact
}

// Update applies a partial profile update.
func (s *PatientService) Update(ctx context.Context, id string, req *UpdatePatientRequest) (*domain.Patient, error) {
	defer s.lock(id)()

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return p, nil
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Name, req.Name)
	set(&p.Email, req.Email)
	set(&p.Phone, req.Phone)
	set(&p.Gender, req.Gender)
	set(&p.Address, req.Address)
	set(&p.Photo, req.Photo)
	if req.BloodGroup != nil {
		p.BloodGroup = strings.ToUpper(strings.TrimSpace(*req.BloodGroup))
	}
	if req.EmergencyContact != nil {
		p.EmergencyContact = *req.EmergencyContact
	}
	p.UpdatedAt = s.now().UnixMilli()

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddReport appends a medical report to a patient's history.
func (s *PatientService) AddReport(ctx context.Context, id string, report domain.MedicalReport) (*domain.MedicalReport, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}

	defer s.lock(id)()
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r, err := domain.NewMedicalReport(report)
	if err != nil {
		return nil, err
	}
	if r.Date == "" {
		r.Date = s.now().UTC().Format(time.DateOnly)
	}

	p.MedicalReports = append(p.MedicalReports, r)
	p.UpdatedAt = s.now().UnixMilli()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.recorder.IncReportAdded()
	return &r, nil
}

// Summary returns the one-line latest-report summary for a patient.
// An unknown patient yields the no-reports text.
func (s *PatientService) Summary(ctx context.Context, id string) (string, error) {
	p, ok, err := s.repo.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return domain.NoReportsSummary, nil
	}
	return p.Summary(), nil
}

// Delete removes a patient.
func (s *PatientService) Delete(ctx context.Context, id string) error {
	defer s.lock(id)()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List returns every registered patient.
func (s *PatientService) List(ctx context.Context) ([]*domain.Patient, error) {
	return s.repo.List(ctx)
}

// Count returns the number of registered patients.
func (s *PatientService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
