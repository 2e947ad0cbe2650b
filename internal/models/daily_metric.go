package models

import (
	"time"

	"gorm.io/datatypes"
)

// DailyMetric is one synced day of wearable data for a user, flattened from
// the Whoop cycle/recovery/sleep records that share a cycle ID. Re-syncing a
// date overwrites the row; the raw column keeps the original API payloads so
// derived fields can be recomputed later.
type DailyMetric struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_daily_metrics_user_date,priority:1"`                  // Owning user ID.
	Date   string `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_metrics_user_date,priority:2"` // Calendar date (UTC, YYYY-MM-DD).

	CycleID *int64 `gorm:"type:bigint"` // Whoop cycle ID the row was built from.

	Strain           *float64 `gorm:"type:decimal(20,10)"` // Day strain score.
	Kilojoule        *float64 `gorm:"type:decimal(20,10)"` // Energy expenditure.
	AverageHeartRate *int     // Average heart rate over the cycle.
	MaxHeartRate     *int     // Max heart rate over the cycle.

	RecoveryScore    *float64 `gorm:"type:decimal(20,10)"`                          // Recovery score percentage.
	HRVMilli         *float64 `gorm:"column:hrv_milli;type:decimal(20,10)"`         // HRV RMSSD in milliseconds.
	RestingHeartRate *float64 `gorm:"type:decimal(20,10)"`                          // Resting heart rate.
	SpO2Percentage   *float64 `gorm:"column:sp_o2_percentage;type:decimal(20,10)"`  // Blood oxygen percentage.
	SkinTempCelsius  *float64 `gorm:"type:decimal(20,10)"`                          // Skin temperature.

	SleepDurationMinutes *int // Light + slow-wave + REM sleep, in minutes.
	SleepScore           *int // Rounded sleep performance percentage.

	Raw datatypes.JSON `gorm:"type:jsonb"` // Original nested API payloads.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (DailyMetric) TableName() string {
	return "daily_metrics"
}
