package models

import "time"

// Supplement keys tracked by the daily summary. The aggregated document
// always carries every key, defaulting to amount 0 when no log exists.
const (
	SupplementCreatine  = "creatine"
	SupplementVitaminD3 = "vitamin_d3"
	SupplementFishOil   = "fish_oil"
	SupplementMagnesium = "magnesium"
	SupplementZinc      = "zinc"
)

// SupplementKeys lists every tracked supplement in display order.
var SupplementKeys = []string{
	SupplementCreatine,
	SupplementVitaminD3,
	SupplementFishOil,
	SupplementMagnesium,
	SupplementZinc,
}

// SupplementLog records the amount of one supplement taken on a date.
// At most one row exists per (user, date, supplement).
type SupplementLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID     uint64 `gorm:"not null;uniqueIndex:idx_supplement_logs_user_date_key,priority:1"`                  // Owning user ID.
	Date       string `gorm:"type:varchar(10);not null;uniqueIndex:idx_supplement_logs_user_date_key,priority:2"` // Calendar date (YYYY-MM-DD).
	Supplement string `gorm:"type:varchar(32);not null;uniqueIndex:idx_supplement_logs_user_date_key,priority:3"` // Supplement key.

	Amount float64 `gorm:"not null;default:0"` // Amount taken (grams, IU, ...).

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
