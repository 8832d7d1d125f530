package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Saiguru2554/Health-Link-Qr/internal/core/domain"
	"github.com/Saiguru2554/Health-Link-Qr/internal/storage"
	"github.com/Saiguru2554/Health-Link-Qr/internal/storage/memory"
)

func TestPatientStore_CRUD(t *testing.T) {
	kv := memory.New()
	store := storage.NewPatientStore(kv)
	ctx := context.Background()

	p := &domain.Patient{
		ID:   "P123456001",
		Name: "Asha Rao",
		MedicalReports: []domain.MedicalReport{
			{ID: "mr-1", Diagnosis: "Flu", Treatment: "Rest"},
		},
	}

	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, p); !errors.Is(err, domain.ErrPatientConflict) {
		t.Errorf("second Create = %v, want ErrPatientConflict", err)
	}

	if _, ok, _ := kv.Get(ctx, "patients/P123456001"); !ok {
		t.Error("record not stored under patients/<id>")
	}

	got, err := store.Get(ctx, "P123456001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Asha Rao" || len(got.MedicalReports) != 1 {
		t.Errorf("Get = %+v", got)
	}

	got.Name = "Asha R."
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := store.Get(ctx, "P123456001")
	if again.Name != "Asha R." {
		t.Errorf("Name after update = %q", again.Name)
	}

	if err := store.Delete(ctx, "P123456001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "P123456001"); !errors.Is(err, domain.ErrPatientNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
	if err := store.Update(ctx, got); !errors.Is(err, domain.ErrPatientNotFound) {
		t.Errorf("Update after delete = %v", err)
	}
}

func TestPatientStore_Lookup(t *testing.T) {
	store := storage.NewPatientStore(memory.New())
	ctx := context.Background()

	if _, ok, err := store.Lookup(ctx, "P1"); ok || err != nil {
		t.Errorf("Lookup missing = %v, %v", ok, err)
	}
	if _, ok, err := store.Lookup(ctx, ""); ok || err != nil {
		t.Errorf("Lookup empty = %v, %v", ok, err)
	}
	if err := store.Create(ctx, &domain.Patient{}); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Create without id = %v", err)
	}
}

func TestPatientStore_ListAndCount(t *testing.T) {
	kv := memory.New()
	store := storage.NewPatientStore(kv)
	ctx := context.Background()

	for _, id := range []string{"P3", "P1", "P2"} {
		if err := store.Create(ctx, &domain.Patient{ID: id, Name: id}); err != nil {
			t.Fatal(err)
		}
	}
	_ = kv.Set(ctx, "other/x", []byte("not a patient"))

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != "P1" || list[2].ID != "P3" {
		t.Errorf("List = %v", list)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v", n, err)
	}
}

func TestPatientStore_CorruptRecord(t *testing.T) {
	kv := memory.New()
	store := storage.NewPatientStore(kv)
	ctx := context.Background()

	_ = kv.Set(ctx, storage.PatientKeyPrefix+"P1", []byte("{not json"))

	if _, err := store.Get(ctx, "P1"); !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("Get corrupt = %v, want ErrStorageError", err)
	}
	if _, err := store.List(ctx); !errors.Is(err, domain.ErrStorageError) {
		t.Errorf("List corrupt = %v, want ErrStorageError", err)
	}
}

func TestPatientStore_ClosedKV(t *testing.T) {
	kv := memory.New()
	store := storage.NewPatientStore(kv)
	_ = kv.Close()

	_, _, err := store.Lookup(context.Background(), "P1")
	if !errors.Is(err, domain.ErrStorageError) || !errors.Is(err, storage.ErrClosed) {
		t.Errorf("Lookup on closed store = %v", err)
	}
}
