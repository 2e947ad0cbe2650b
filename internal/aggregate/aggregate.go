// Package aggregate folds every per-day source table for one user and date
// into a single denormalized summary document. Aggregate is a pure read+fold;
// Sync additionally persists the document. Failing clean is preferred over
// writing a partial summary: if any source read fails, nothing is written.
package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vitalsync/vitalsync/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Aggregator builds and persists daily summary documents.
type Aggregator struct {
	db  *gorm.DB
	now func() time.Time
}

// New constructs an Aggregator.
func New(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, now: time.Now}
}

// NutritionTotals holds summed macro values. Micronutrients stay nil when no
// food log ever supplied a value, keeping "no data" distinct from zero.
type NutritionTotals struct {
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Fat      float64  `json:"fat"`
	Carbs    float64  `json:"carbs"`
	Fiber    *float64 `json:"fiber"`
	Sugar    *float64 `json:"sugar"`
	Sodium   *float64 `json:"sodium"`
}

// FoodItemSummary is one logged food scaled by its servings.
type FoodItemSummary struct {
	FoodID   uint64  `json:"food_id"`
	Name     string  `json:"name"`
	Servings float64 `json:"servings"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// MealSummary is one meal with its item breakdown and subtotal.
type MealSummary struct {
	MealID    uint64            `json:"meal_id"`
	Name      string            `json:"name"`
	TimeOfDay string            `json:"time_of_day"`
	Items     []FoodItemSummary `json:"items"`
	Totals    NutritionTotals   `json:"totals"`
}

// SetSummary is one set within an exercise.
type SetSummary struct {
	SetNumber int      `json:"set_number"`
	Reps      int      `json:"reps"`
	Weight    *float64 `json:"weight"`
}

// ExerciseSummary is one exercise with per-set detail. MaxWeight is nil when
// no set recorded a weight.
type ExerciseSummary struct {
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	Sets      []SetSummary `json:"sets"`
	TotalSets int          `json:"total_sets"`
	TotalReps int          `json:"total_reps"`
	MaxWeight *float64     `json:"max_weight"`
}

// CardioSummary is one cardio session.
type CardioSummary struct {
	Activity        string `json:"activity"`
	DurationMinutes int    `json:"duration_minutes"`
}

// WorkoutSummary aggregates the day's training.
type WorkoutSummary struct {
	Exercises          []ExerciseSummary `json:"exercises"`
	Cardio             []CardioSummary   `json:"cardio"`
	TotalExercises     int               `json:"total_exercises"`
	TotalSets          int               `json:"total_sets"`
	TotalCardioMinutes int               `json:"total_cardio_minutes"`
}

// Summary is the full denormalized document for one user and date.
type Summary struct {
	Date        string              `json:"date"`
	Nutrition   NutritionTotals     `json:"nutrition"`
	Meals       []MealSummary       `json:"meals"`
	Supplements map[string]float64  `json:"supplements"`
	Workout     WorkoutSummary      `json:"workout"`
	Metrics     *models.DailyMetric `json:"metrics"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// dayData carries the raw rows loaded by the concurrent read phase.
type dayData struct {
	meals             []models.Meal
	foodLogs          []models.FoodLog
	foods             []models.Food
	exercises         []models.Exercise
	exerciseLogs      []models.ExerciseLog
	sets              []models.ExerciseSet
	cardio            []models.CardioSession
	metrics           *models.DailyMetric
	supplementAmounts []float64
}

// Aggregate reads every per-day source for the user and date and folds them
// into a Summary. No external side effect.
func (a *Aggregator) Aggregate(ctx context.Context, userID uint64, date string) (*Summary, error) {
	if a == nil || a.db == nil {
		return nil, fmt.Errorf("aggregate: not initialized")
	}

	data, errLoad := a.loadDay(ctx, userID, date)
	if errLoad != nil {
		return nil, errLoad
	}
	return a.fold(date, data), nil
}

// Sync aggregates the date and upserts the resulting document.
func (a *Aggregator) Sync(ctx context.Context, userID uint64, date string) (*Summary, error) {
	summary, errAggregate := a.Aggregate(ctx, userID, date)
	if errAggregate != nil {
		return nil, errAggregate
	}

	payload, errMarshal := json.Marshal(summary)
	if errMarshal != nil {
		return nil, fmt.Errorf("aggregate: marshal summary: %w", errMarshal)
	}

	row := models.DailySummary{
		UserID:   userID,
		Date:     date,
		Document: datatypes.JSON(payload),
	}
	if errUpsert := a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error; errUpsert != nil {
		return nil, fmt.Errorf("aggregate: upsert summary: %w", errUpsert)
	}
	return summary, nil
}

// loadDay issues every per-day read concurrently and fails fast when any one
// of them fails.
func (a *Aggregator) loadDay(ctx context.Context, userID uint64, date string) (*dayData, error) {
	data := &dayData{
		supplementAmounts: make([]float64, len(models.SupplementKeys)),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	scoped := func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND date = ?", userID, date)
	}

	group.Go(func() error {
		return scoped(a.db.WithContext(groupCtx)).Order("time_of_day ASC, id ASC").Find(&data.meals).Error
	})
	group.Go(func() error {
		return scoped(a.db.WithContext(groupCtx)).Find(&data.foodLogs).Error
	})
	group.Go(func() error {
		return a.db.WithContext(groupCtx).Find(&data.foods).Error
	})
	group.Go(func() error {
		return a.db.WithContext(groupCtx).Find(&data.exercises).Error
	})
	group.Go(func() error {
		return scoped(a.db.WithContext(groupCtx)).Order("id ASC").Find(&data.exerciseLogs).Error
	})
	group.Go(func() error {
		subquery := a.db.Model(&models.ExerciseLog{}).Select("id").Where("user_id = ? AND date = ?", userID, date)
		return a.db.WithContext(groupCtx).
			Where("exercise_log_id IN (?)", subquery).
			Order("exercise_log_id ASC, set_number ASC").
			Find(&data.sets).Error
	})
	group.Go(func() error {
		return scoped(a.db.WithContext(groupCtx)).Order("id ASC").Find(&data.cardio).Error
	})
	group.Go(func() error {
		var row models.DailyMetric
		errFind := scoped(a.db.WithContext(groupCtx)).First(&row).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return nil
			}
			return errFind
		}
		data.metrics = &row
		return nil
	})
	for i, key := range models.SupplementKeys {
		i, key := i, key
		group.Go(func() error {
			amount, errGet := a.supplementLog(groupCtx, userID, date, key)
			if errGet != nil {
				return errGet
			}
			data.supplementAmounts[i] = amount
			return nil
		})
	}

	if errWait := group.Wait(); errWait != nil {
		return nil, fmt.Errorf("aggregate: load day %s: %w", date, errWait)
	}
	return data, nil
}

// supplementLog is the single parameterized lookup for one supplement key:
// the day's single-row log or a zero amount when none exists.
func (a *Aggregator) supplementLog(ctx context.Context, userID uint64, date, key string) (float64, error) {
	var row models.SupplementLog
	errFind := a.db.WithContext(ctx).
		Where("user_id = ? AND date = ? AND supplement = ?", userID, date, key).
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, errFind
	}
	return row.Amount, nil
}

func (a *Aggregator) fold(date string, data *dayData) *Summary {
	foodByID := make(map[uint64]models.Food, len(data.foods))
	for _, food := range data.foods {
		foodByID[food.ID] = food
	}
	exerciseByID := make(map[uint64]models.Exercise, len(data.exercises))
	for _, exercise := range data.exercises {
		exerciseByID[exercise.ID] = exercise
	}

	summary := &Summary{
		Date:        date,
		Nutrition:   foldNutrition(data.foodLogs, foodByID),
		Meals:       foldMeals(data.meals, data.foodLogs, foodByID),
		Supplements: foldSupplements(data.supplementAmounts),
		Workout:     foldWorkout(data.exerciseLogs, data.sets, data.cardio, exerciseByID),
		Metrics:     data.metrics,
		UpdatedAt:   a.now().UTC(),
	}
	return summary
}

// foldNutrition computes whole-day totals over all food logs, attached to a
// meal or not. Micronutrients accumulate only when the food supplies them.
func foldNutrition(logs []models.FoodLog, foodByID map[uint64]models.Food) NutritionTotals {
	var totals NutritionTotals
	for _, logRow := range logs {
		food, ok := foodByID[logRow.FoodID]
		if !ok {
			continue
		}
		totals.Calories += food.Calories * logRow.Servings
		totals.Protein += food.Protein * logRow.Servings
		totals.Fat += food.Fat * logRow.Servings
		totals.Carbs += food.Carbs * logRow.Servings
		totals.Fiber = accumulate(totals.Fiber, food.Fiber, logRow.Servings)
		totals.Sugar = accumulate(totals.Sugar, food.Sugar, logRow.Servings)
		totals.Sodium = accumulate(totals.Sodium, food.Sodium, logRow.Servings)
	}
	return totals
}

// accumulate adds a scaled optional value to an optional running total.
func accumulate(total *float64, value *float64, servings float64) *float64 {
	if value == nil {
		return total
	}
	scaled := *value * servings
	if total == nil {
		return &scaled
	}
	sum := *total + scaled
	return &sum
}

func foldMeals(meals []models.Meal, logs []models.FoodLog, foodByID map[uint64]models.Food) []MealSummary {
	logsByMeal := make(map[uint64][]models.FoodLog)
	for _, logRow := range logs {
		if logRow.MealID == nil {
			continue
		}
		logsByMeal[*logRow.MealID] = append(logsByMeal[*logRow.MealID], logRow)
	}

	out := make([]MealSummary, 0, len(meals))
	for _, meal := range meals {
		mealSummary := MealSummary{
			MealID:    meal.ID,
			Name:      meal.Name,
			TimeOfDay: meal.TimeOfDay,
			Items:     []FoodItemSummary{},
		}
		for _, logRow := range logsByMeal[meal.ID] {
			food, ok := foodByID[logRow.FoodID]
			if !ok {
				continue
			}
			item := FoodItemSummary{
				FoodID:   food.ID,
				Name:     food.Name,
				Servings: logRow.Servings,
				Calories: food.Calories * logRow.Servings,
				Protein:  food.Protein * logRow.Servings,
				Fat:      food.Fat * logRow.Servings,
				Carbs:    food.Carbs * logRow.Servings,
			}
			mealSummary.Items = append(mealSummary.Items, item)
			mealSummary.Totals.Calories += item.Calories
			mealSummary.Totals.Protein += item.Protein
			mealSummary.Totals.Fat += item.Fat
			mealSummary.Totals.Carbs += item.Carbs
		}
		out = append(out, mealSummary)
	}
	return out
}

// foldSupplements maps every known supplement key to its logged amount; keys
// without a log default to 0 rather than being absent.
func foldSupplements(amounts []float64) map[string]float64 {
	out := make(map[string]float64, len(models.SupplementKeys))
	for i, key := range models.SupplementKeys {
		out[key] = amounts[i]
	}
	return out
}

func foldWorkout(logs []models.ExerciseLog, sets []models.ExerciseSet, cardio []models.CardioSession, exerciseByID map[uint64]models.Exercise) WorkoutSummary {
	setsByLog := make(map[uint64][]models.ExerciseSet)
	for _, set := range sets {
		setsByLog[set.ExerciseLogID] = append(setsByLog[set.ExerciseLogID], set)
	}

	summary := WorkoutSummary{
		Exercises: []ExerciseSummary{},
		Cardio:    []CardioSummary{},
	}
	for _, logRow := range logs {
		exercise := exerciseByID[logRow.ExerciseID]

		logSets := setsByLog[logRow.ID]
		sort.Slice(logSets, func(i, j int) bool {
			return logSets[i].SetNumber < logSets[j].SetNumber
		})

		exerciseSummary := ExerciseSummary{
			Name:     exercise.Name,
			Category: exercise.Category,
			Sets:     make([]SetSummary, 0, len(logSets)),
		}
		for _, set := range logSets {
			exerciseSummary.Sets = append(exerciseSummary.Sets, SetSummary{
				SetNumber: set.SetNumber,
				Reps:      set.Reps,
				Weight:    set.Weight,
			})
			exerciseSummary.TotalSets++
			exerciseSummary.TotalReps += set.Reps
			if set.Weight != nil && (exerciseSummary.MaxWeight == nil || *set.Weight > *exerciseSummary.MaxWeight) {
				weight := *set.Weight
				exerciseSummary.MaxWeight = &weight
			}
		}
		summary.Exercises = append(summary.Exercises, exerciseSummary)
		summary.TotalExercises++
		summary.TotalSets += exerciseSummary.TotalSets
	}

	for _, session := range cardio {
		summary.Cardio = append(summary.Cardio, CardioSummary{
			Activity:        session.Activity,
			DurationMinutes: session.DurationMinutes,
		})
		summary.TotalCardioMinutes += session.DurationMinutes
	}
	return summary
}
