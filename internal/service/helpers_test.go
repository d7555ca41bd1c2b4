package service

import (
	"testing"

	"pathways_backend/internal/config"
	"pathways_backend/internal/model"
	"pathways_backend/internal/repository"
	"pathways_backend/internal/testutil"

	"gorm.io/gorm"
)

type harness struct {
	db         *gorm.DB
	units      *repository.UnitRepository
	attempts   *repository.AttemptRepository
	progress   *ProgressService
	storage    *StorageService
	assessment *AssessmentService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	testutil.SeedCatalog(t, db)

	units := repository.NewUnitRepository(db, nil)
	attempts := repository.NewAttemptRepository(db)
	progress := NewProgressService(db, units, attempts, NewLocalLocker())
	storage := &StorageService{Provider: &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}}

	return &harness{
		db:         db,
		units:      units,
		attempts:   attempts,
		progress:   progress,
		storage:    storage,
		assessment: NewAssessmentService(units, attempts, progress, storage),
	}
}

var (
	student = model.Viewer{UserID: 7, Role: model.Student}
	teacher = model.Viewer{UserID: 8, Role: model.Teacher}
)

func mustUnit(t *testing.T, h *harness, id string) *model.Unit {
	t.Helper()
	u, err := h.units.FindUnit(t.Context(), id)
	if err != nil {
		t.Fatalf("load unit %s: %v", id, err)
	}
	return u
}
