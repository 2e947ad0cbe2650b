package models

import "time"

// Food is a reference food with per-serving nutrition values. Micronutrient
// columns are nullable so "no data" stays distinguishable from zero.
type Food struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name    string `gorm:"type:text;not null"` // Display name.
	Brand   string `gorm:"type:text"`          // Brand, when known.
	Barcode string `gorm:"type:varchar(64)"`   // Scanned barcode, when known.

	Calories float64 `gorm:"not null;default:0"` // Calories per serving.
	Protein  float64 `gorm:"not null;default:0"` // Protein grams per serving.
	Fat      float64 `gorm:"not null;default:0"` // Fat grams per serving.
	Carbs    float64 `gorm:"not null;default:0"` // Carbohydrate grams per serving.

	Fiber  *float64 `gorm:"type:decimal(20,10)"` // Fiber grams per serving.
	Sugar  *float64 `gorm:"type:decimal(20,10)"` // Sugar grams per serving.
	Sodium *float64 `gorm:"type:decimal(20,10)"` // Sodium milligrams per serving.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Meal groups food logs under a named sitting for one user and date.
type Meal struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index:idx_meals_user_date,priority:1"`                  // Owning user ID.
	Date   string `gorm:"type:varchar(10);not null;index:idx_meals_user_date,priority:2"` // Calendar date (YYYY-MM-DD).

	Name      string `gorm:"type:text;not null"`  // Meal name (Breakfast, Lunch, ...).
	TimeOfDay string `gorm:"type:varchar(5)"`     // Clock time HH:MM used for ordering.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// FoodLog records servings of a food eaten on a date. MealID is nullable:
// logs not attached to any meal still count toward whole-day totals.
type FoodLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index:idx_food_logs_user_date,priority:1"`                  // Owning user ID.
	Date   string `gorm:"type:varchar(10);not null;index:idx_food_logs_user_date,priority:2"` // Calendar date (YYYY-MM-DD).

	FoodID uint64  `gorm:"not null;index"` // Referenced food ID.
	MealID *uint64 `gorm:"index"`          // Meal the log belongs to, if any.

	Servings float64 `gorm:"not null;default:1"` // Serving multiplier.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
