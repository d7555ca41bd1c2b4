package repository

import (
	"context"
	"pathways_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptRepository is the attempt ledger. Records are only ever inserted or flipped to completed.
type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: tx}
}

// FindOrCreate returns the record for (userID, unitID), inserting an empty one if absent.
// Concurrent callers converge on the same row through the unique index.
func (r *AttemptRepository) FindOrCreate(ctx context.Context, userID uint, unitID string) (*model.AttemptRecord, error) {
	if err := r.ensure(ctx, userID, unitID); err != nil {
		return nil, err
	}
	return r.Find(ctx, userID, unitID)
}

func (r *AttemptRepository) Find(ctx context.Context, userID uint, unitID string) (*model.AttemptRecord, error) {
	var rec model.AttemptRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND unit_id = ?", userID, unitID).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *AttemptRepository) ensure(ctx context.Context, userID uint, unitID string) error {
	rec := &model.AttemptRecord{UserID: userID, UnitID: unitID}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
}

// MarkCompleted flips the record to completed if and only if it is not already.
// The boolean reports whether this call performed the transition.
func (r *AttemptRepository) MarkCompleted(ctx context.Context, userID uint, unitID string, points int, at time.Time) (bool, error) {
	if err := r.ensure(ctx, userID, unitID); err != nil {
		return false, err
	}

	res := r.DB.WithContext(ctx).
		Model(&model.AttemptRecord{}).
		Where("user_id = ? AND unit_id = ? AND completed = ?", userID, unitID, false).
		Updates(map[string]interface{}{
			"completed":     true,
			"points_earned": points,
			"completed_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CompletedUnitIDs returns which of unitIDs the user has completed.
func (r *AttemptRepository) CompletedUnitIDs(ctx context.Context, userID uint, unitIDs []string) (map[string]bool, error) {
	statusMap := make(map[string]bool)
	if len(unitIDs) == 0 {
		return statusMap, nil
	}

	var completed []string
	err := r.DB.WithContext(ctx).
		Model(&model.AttemptRecord{}).
		Where("user_id = ? AND unit_id IN ? AND completed = ?", userID, unitIDs, true).
		Pluck("unit_id", &completed).Error
	if err != nil {
		return nil, err
	}

	for _, id := range completed {
		statusMap[id] = true
	}
	return statusMap, nil
}
