package models

import (
	"time"

	"gorm.io/datatypes"
)

// DailySummary is the denormalized per-day projection of every source table.
// It is derived data: fully replaceable by re-running aggregation, never
// hand-edited.
type DailySummary struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_daily_summaries_user_date,priority:1"`                  // Owning user ID.
	Date   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_summaries_user_date,priority:2"` // Calendar date (YYYY-MM-DD).

	Document datatypes.JSON `gorm:"type:jsonb;not null"` // Assembled summary document.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (DailySummary) TableName() string {
	return "daily_summaries"
}
