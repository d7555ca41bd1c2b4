package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pathways_backend/internal/model"
	"pathways_backend/internal/repository"
	"pathways_backend/internal/util"
	"pathways_backend/pkg/monitoring"
	"pathways_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// CommitResult describes one ledger commit and the owning module's rollup around it.
type CommitResult struct {
	Record              *model.AttemptRecord
	AlreadyCompleted    bool
	Before              model.ProgressSnapshot
	After               model.ProgressSnapshot
	ModuleJustCompleted bool
}

type ProgressService struct {
	DB       *gorm.DB
	Units    *repository.UnitRepository
	Attempts *repository.AttemptRepository
	Locker   Locker
	Now      func() time.Time
}

func NewProgressService(db *gorm.DB, units *repository.UnitRepository, attempts *repository.AttemptRepository, locker Locker) *ProgressService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &ProgressService{
		DB:       db,
		Units:    units,
		Attempts: attempts,
		Locker:   locker,
		Now:      time.Now,
	}
}

// Commit records the unit as completed for the user, awarding exactly the unit's points.
// The ledger write and both module snapshots happen in one transaction.
func (s *ProgressService) Commit(ctx context.Context, userID uint, unit *model.Unit) (result *CommitResult, err error) {
	ctx, span := tracing.Start(ctx, "progress.commit",
		attribute.Int("user.id", int(userID)),
		attribute.String("unit.id", unit.ID),
	)
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	defer func() { monitoring.CommitDuration.Observe(time.Since(start).Seconds()) }()

	unlock, err := s.Locker.Lock(ctx, commitLockKey(userID, unit.ModuleID))
	if err != nil {
		return nil, storageErr(err)
	}
	defer unlock()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		units := s.Units.WithTx(tx)
		attempts := s.Attempts.WithTx(tx)

		moduleUnits, err := units.ListModuleUnits(ctx, unit.ModuleID)
		if err != nil {
			return err
		}
		completed, err := attempts.CompletedUnitIDs(ctx, userID, unitIDs(moduleUnits))
		if err != nil {
			return err
		}
		before := ComputeSnapshot(moduleUnits, completed)

		flipped, err := attempts.MarkCompleted(ctx, userID, unit.ID, unit.Points, s.Now())
		if err != nil {
			return err
		}
		rec, err := attempts.Find(ctx, userID, unit.ID)
		if err != nil {
			return err
		}

		completed[unit.ID] = true
		after := ComputeSnapshot(moduleUnits, completed)

		result = &CommitResult{
			Record:              rec,
			AlreadyCompleted:    !flipped,
			Before:              before,
			After:               after,
			ModuleJustCompleted: flipped && before.PercentComplete < 100 && after.PercentComplete == 100,
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}

	if result.ModuleJustCompleted {
		monitoring.ModuleCompletions.Inc()
	}
	return result, nil
}

// ModuleSnapshot computes the user's rollup for one module.
func (s *ProgressService) ModuleSnapshot(ctx context.Context, userID uint, moduleID string) (model.ProgressSnapshot, error) {
	if _, err := s.Units.FindModule(ctx, moduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ProgressSnapshot{}, util.ErrModuleNotFound
		}
		return model.ProgressSnapshot{}, storageErr(err)
	}
	return s.snapshot(ctx, userID, []string{moduleID})
}

// PathSnapshot computes the user's rollup for a path from the leaf units of all its modules.
func (s *ProgressService) PathSnapshot(ctx context.Context, userID uint, pathID string) (model.ProgressSnapshot, error) {
	if _, err := s.Units.FindPath(ctx, pathID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ProgressSnapshot{}, util.ErrPathNotFound
		}
		return model.ProgressSnapshot{}, storageErr(err)
	}
	moduleIDs, err := s.Units.ListPathModuleIDs(ctx, pathID)
	if err != nil {
		return model.ProgressSnapshot{}, storageErr(err)
	}
	return s.snapshot(ctx, userID, moduleIDs)
}

func (s *ProgressService) snapshot(ctx context.Context, userID uint, moduleIDs []string) (model.ProgressSnapshot, error) {
	units, err := s.Units.ListUnitsForModules(ctx, moduleIDs)
	if err != nil {
		return model.ProgressSnapshot{}, storageErr(err)
	}
	completed, err := s.Attempts.CompletedUnitIDs(ctx, userID, unitIDs(units))
	if err != nil {
		return model.ProgressSnapshot{}, storageErr(err)
	}
	return ComputeSnapshot(units, completed), nil
}

// ComputeSnapshot weights each unit by its estimated time. A zero total is 0%.
func ComputeSnapshot(units []model.Unit, completed map[string]bool) model.ProgressSnapshot {
	var snap model.ProgressSnapshot
	for _, u := range units {
		snap.TotalTime += u.EstTime
		snap.TotalPoints += u.Points
		if completed[u.ID] {
			snap.EarnedTime += u.EstTime
			snap.EarnedPoints += u.Points
		}
	}
	if snap.TotalTime > 0 {
		snap.PercentComplete = 100 * snap.EarnedTime / snap.TotalTime
	}
	snap.Label = progressLabel(snap)
	return snap
}

func progressLabel(snap model.ProgressSnapshot) string {
	points := fmt.Sprintf("%d of %d points", snap.EarnedPoints, snap.TotalPoints)
	if snap.PercentComplete == 100 {
		return "Completed, " + points
	}
	return FormatMinutes(snap.TotalTime-snap.EarnedTime) + " remaining, " + points
}

// FormatMinutes renders a duration like "1 hr 5 min".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%d hr", h))
	}
	if m > 0 || h == 0 {
		parts = append(parts, fmt.Sprintf("%d min", m))
	}
	return strings.Join(parts, " ")
}

func unitIDs(units []model.Unit) []string {
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return ids
}

// storageErr tags infrastructure failures so controllers can answer 503.
func storageErr(err error) error {
	if err == nil || errors.Is(err, util.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", util.ErrStorageUnavailable, err)
}
