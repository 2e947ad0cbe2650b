package db

import (
	"fmt"

	"github.com/vitalsync/vitalsync/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.WhoopCredential{},
		&models.DailyMetric{},
		&models.WhoopWorkout{},
		&models.DailySummary{},
		&models.Food{},
		&models.Meal{},
		&models.FoodLog{},
		&models.Exercise{},
		&models.ExerciseLog{},
		&models.ExerciseSet{},
		&models.CardioSession{},
		&models.SupplementLog{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_food_logs_user_date_meal",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_food_logs_user_date_meal
				ON food_logs (user_id, date, meal_id)
			`,
		},
		{
			name: "idx_exercise_sets_log_set_number",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_exercise_sets_log_set_number
				ON exercise_sets (exercise_log_id, set_number)
			`,
		},
		{
			name: "idx_whoop_workouts_user_start",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_whoop_workouts_user_start
				ON whoop_workouts (user_id, start DESC)
			`,
		},
		{
			name: "idx_daily_metrics_user_updated_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_daily_metrics_user_updated_at
				ON daily_metrics (user_id, updated_at DESC)
			`,
		},
	}
	if !IsSQLite(conn) {
		ddls = append(ddls, ddl{
			name: "idx_daily_summaries_document",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_daily_summaries_document
				ON daily_summaries USING gin (document)
			`,
		})
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}
