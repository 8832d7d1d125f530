package storage

import (
	"context"
	"encoding/json"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
)

// PatientKeyPrefix namespaces patient records in the KV.
const PatientKeyPrefix = "patients/"

// PatientStore implements service.PatientRepository over a KV.
type PatientStore struct {
	kv KV
}

// NewPatientStore creates a patient repository backed by kv.
func NewPatientStore(kv KV) *PatientStore {
	return &PatientStore{kv: kv}
}

func patientKey(id string) string {
	return PatientKeyPrefix + id
}

// Create stores a new patient. Returns ErrPatientConflict if the ID is taken.
func (s *PatientStore) Create(ctx context.Context, p *domain.Patient) error {
	if p.ID == "" {
		return domain.ErrMissingArgument.WithDetails("patient id is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}

	stored, err := s.kv.SetIfAbsent(ctx, patientKey(p.ID), data)
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	if !stored {
		return domain.ErrPatientConflict.WithDetails(p.ID)
	}
	return nil
}

// Get loads a patient. Returns ErrPatientNotFound when absent.
func (s *PatientStore) Get(ctx context.Context, id string) (*domain.Patient, error) {
	p, ok, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	return p, nil
}

// Lookup loads a patient, reporting absence through the bool result.
func (s *PatientStore) Lookup(ctx context.Context, id string) (*domain.Patient, bool, error) {
	if id == "" {
		return nil, false, nil
	}
	data, ok, err := s.kv.Get(ctx, patientKey(id))
	if err != nil {
		return nil, false, domain.ErrStorageError.WithCause(err)
	}
	if !ok {
		return nil, false, nil
	}

	var p domain.Patient
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, domain.ErrStorageError.WithDetails("corrupt patient record").WithCause(err)
	}
	return &p, true, nil
}

// Update replaces an existing patient. Returns ErrPatientNotFound when absent.
func (s *PatientStore) Update(ctx context.Context, p *domain.Patient) error {
	_, ok, err := s.kv.Get(ctx, patientKey(p.ID))
	if err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	if !ok {
		return domain.ErrPatientNotFound
	}

	data, err := json.Marshal(p)
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}
	if err := s.kv.Set(ctx, patientKey(p.ID), data); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// Delete removes a patient. Deleting an unknown ID is not an error.
func (s *PatientStore) Delete(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, patientKey(id)); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

// List returns all patients in ID order.
func (s *PatientStore) List(ctx context.Context) ([]*domain.Patient, error) {
	var (
		out    []*domain.Patient
		decErr error
	)
	err := s.kv.Scan(ctx, PatientKeyPrefix, func(_ string, value []byte) bool {
		var p domain.Patient
		if err := json.Unmarshal(value, &p); err != nil {
			decErr = err
			return false
		}
		out = append(out, &p)
		return true
	})
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	if decErr != nil {
		return nil, domain.ErrStorageError.WithDetails("corrupt patient record").WithCause(decErr)
	}
	return out, nil
}

// Count returns the number of stored patients.
func (s *PatientStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.kv.Scan(ctx, PatientKeyPrefix, func(string, []byte) bool {
		n++
		return true
	})
	if err != nil {
		return 0, domain.ErrStorageError.WithCause(err)
	}
	return n, nil
}

var _ service.PatientRepository = (*PatientStore)(nil)
