package models

import "time"

// Exercise is a reference exercise used as a local join map by aggregation.
type Exercise struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"` // Display name.
	Category string `gorm:"type:text"`          // Category label (push, pull, legs, ...).

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// ExerciseLog records one exercise performed on a date.
type ExerciseLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index:idx_exercise_logs_user_date,priority:1"`                  // Owning user ID.
	Date   string `gorm:"type:varchar(10);not null;index:idx_exercise_logs_user_date,priority:2"` // Calendar date (YYYY-MM-DD).

	ExerciseID uint64 `gorm:"not null;index"` // Referenced exercise ID.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// ExerciseSet is one set within an exercise log. Weight is nullable for
// bodyweight work.
type ExerciseSet struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ExerciseLogID uint64 `gorm:"not null;index"` // Parent exercise log ID.

	SetNumber int      `gorm:"not null"`            // Ordinal within the log.
	Reps      int      `gorm:"not null;default:0"`  // Repetitions performed.
	Weight    *float64 `gorm:"type:decimal(20,10)"` // Weight used, when any.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// CardioSession records one cardio activity on a date.
type CardioSession struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index:idx_cardio_sessions_user_date,priority:1"`                  // Owning user ID.
	Date   string `gorm:"type:varchar(10);not null;index:idx_cardio_sessions_user_date,priority:2"` // Calendar date (YYYY-MM-DD).

	Activity        string `gorm:"type:text;not null"` // Activity name.
	DurationMinutes int    `gorm:"not null;default:0"` // Duration in minutes.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
