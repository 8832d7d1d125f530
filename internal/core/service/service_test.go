package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/service"
	"github.com/Saiguru2554/Health-Link-Qr/internal/storage"
	"github.com/Saiguru2554/Health-Link-Qr/internal/storage/memory"
	"github.com/Saiguru2554/Health-Link-Qr/pkg/qrtoken"
)

// recorder counts calls for assertions.
type recorder struct {
	mu       sync.Mutex
	issued   map[string]int
	verified map[string]int
	scans    map[string]int
	patients int
	reports  int
}

func newRecorder() *recorder {
	return &recorder{
		issued:   make(map[string]int),
		verified: make(map[string]int),
		scans:    make(map[string]int),
	}
}

func (r *recorder) IncTokenIssued(shape string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued[shape]++
}

func (r *recorder) ObserveVerification(valid bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if valid {
		r.verified["valid"]++
	} else {
		r.verified[reason]++
	}
}

func (r *recorder) IncScan(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans[status]++
}

func (r *recorder) IncPatientRegistered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients++
}

func (r *recorder) IncReportAdded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports++
}

type fixture struct {
	now      time.Time
	rec      *recorder
	kv       *memory.Store
	repo     *storage.PatientStore
	qr       *service.QRService
	patients *service.PatientService
	resolver *service.ResolverService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		rec: newRecorder(),
	}
	clock := func() time.Time { return f.now }

	f.kv = memory.New()
	t.Cleanup(func() { _ = f.kv.Close() })

	f.repo = storage.NewPatientStore(f.kv)
	f.qr = service.NewQRService(qrtoken.New(qrtoken.WithClock(clock)), &service.QRServiceConfig{
		BaseURL:  "https://health.example.org/",
		Recorder: f.rec,
		Clock:    clock,
	})
	f.patients = service.NewPatientService(f.repo, f.rec)
	f.resolver = service.NewResolverService(f.qr, f.repo, f.rec)
	return f
}

func (f *fixture) register(t *testing.T, id string) {
	t.Helper()
	_, err := f.patients.Register(context.Background(), &service.RegisterPatientRequest{
		ID:   id,
		Name: "Asha Rao",
	})
	require.NoError(t, err)
}
