package model

import "time"

// AttemptRecord is the ledger entry for one user's attempts on one unit.
type AttemptRecord struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_user_unit" json:"userId"`
	UnitID       string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_unit" json:"unitId"`
	Completed    bool       `gorm:"default:false" json:"completed"`
	PointsEarned int        `gorm:"default:0" json:"pointsEarned"`
	CompletedAt  *time.Time `json:"completedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (AttemptRecord) TableName() string {
	return "attempt_records"
}
