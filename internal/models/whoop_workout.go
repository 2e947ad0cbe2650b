package models

import (
	"time"

	"gorm.io/datatypes"
)

// WhoopWorkout caches one remote workout instance. Upserts key on
// (user_id, workout_id) so overlapping re-syncs never duplicate rows.
type WhoopWorkout struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID    uint64 `gorm:"not null;uniqueIndex:idx_whoop_workouts_user_workout,priority:1"`                 // Owning user ID.
	WorkoutID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_whoop_workouts_user_workout,priority:2"` // Remote workout ID.

	SportName string    `gorm:"type:text"` // Sport or activity name.
	Start     time.Time `gorm:"not null"`  // Workout start.
	End       time.Time // Workout end.

	Strain           *float64 `gorm:"type:decimal(20,10)"` // Workout strain score.
	AverageHeartRate *int     // Average heart rate.
	MaxHeartRate     *int     // Max heart rate.
	Kilojoule        *float64 `gorm:"type:decimal(20,10)"` // Energy expenditure.
	DistanceMeter    *float64 `gorm:"type:decimal(20,10)"` // Distance covered, when recorded.

	Raw datatypes.JSON `gorm:"type:jsonb"` // Original API payload.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (WhoopWorkout) TableName() string {
	return "whoop_workouts"
}
