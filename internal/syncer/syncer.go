// Package syncer pulls Whoop data into local per-day rows: one DailyMetric
// per user and calendar date, one WhoopWorkout per remote workout. Syncs are
// idempotent; re-running a date range overwrites, never appends.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vitalsync/vitalsync/internal/credentials"
	"github.com/vitalsync/vitalsync/internal/models"
	"github.com/vitalsync/vitalsync/internal/whoop"
)

const dateLayout = "2006-01-02"

// Syncer orchestrates per-user Whoop synchronization.
type Syncer struct {
	db         *gorm.DB
	store      *credentials.Store
	tokens     *whoop.TokenSource
	client     *whoop.Client
	interval   time.Duration
	windowDays int
	now        func() time.Time
}

// New constructs a Syncer. interval <= 0 disables the background loop.
func New(db *gorm.DB, store *credentials.Store, tokens *whoop.TokenSource, client *whoop.Client, interval time.Duration, windowDays int) *Syncer {
	if windowDays <= 0 {
		windowDays = 7
	}
	return &Syncer{
		db:         db,
		store:      store,
		tokens:     tokens,
		client:     client,
		interval:   interval,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// Start runs the scheduled batch sync loop in the background.
func (s *Syncer) Start(ctx context.Context) {
	if s == nil || s.interval <= 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go s.run(ctx)
	log.Infof("whoop syncer started (interval=%s window=%dd)", s.interval, s.windowDays)
}

func (s *Syncer) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := s.SyncAllUsers(ctx)
			if report.Failed > 0 {
				log.Warnf("whoop syncer: batch finished with %d failed user(s)", report.Failed)
			}
		}
	}
}

// Window returns the start and end dates of the configured sync window,
// ending today (UTC).
func (s *Syncer) Window() (string, string) {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -(s.windowDays - 1))
	return start.Format(dateLayout), end.Format(dateLayout)
}

// SyncUserMetrics syncs cycles, recovery and sleep for one user and date
// range into daily_metrics. Returns the number of rows upserted.
func (s *Syncer) SyncUserMetrics(ctx context.Context, userID uint64, startDate, endDate string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("syncer: not initialized")
	}

	token, errToken := s.tokens.AccessToken(ctx, userID)
	if errToken != nil {
		return 0, errToken
	}

	// All three fetches must succeed; a partial commit of only-cycles would
	// leave rows that look synced but have no recovery or sleep data.
	var (
		cycles     []whoop.Cycle
		recoveries []whoop.Recovery
		sleeps     []whoop.Sleep
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var errFetch error
		cycles, errFetch = s.client.Cycles(groupCtx, token, startDate, endDate)
		return errFetch
	})
	group.Go(func() error {
		var errFetch error
		recoveries, errFetch = s.client.Recoveries(groupCtx, token, startDate, endDate)
		return errFetch
	})
	group.Go(func() error {
		var errFetch error
		sleeps, errFetch = s.client.Sleeps(groupCtx, token, startDate, endDate)
		return errFetch
	})
	if errWait := group.Wait(); errWait != nil {
		return 0, fmt.Errorf("syncer: fetch metrics: %w", errWait)
	}

	if len(cycles) == 0 {
		return 0, nil
	}

	rows := buildMetricRows(userID, cycles, recoveries, sleeps)
	if len(rows) == 0 {
		return 0, nil
	}

	if errUpsert := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cycle_id",
			"strain",
			"kilojoule",
			"average_heart_rate",
			"max_heart_rate",
			"recovery_score",
			"hrv_milli",
			"resting_heart_rate",
			"sp_o2_percentage",
			"skin_temp_celsius",
			"sleep_duration_minutes",
			"sleep_score",
			"raw",
			"updated_at",
		}),
	}).Create(&rows).Error; errUpsert != nil {
		return 0, fmt.Errorf("syncer: upsert metrics: %w", errUpsert)
	}
	return len(rows), nil
}

// SyncUserWorkouts syncs the workout list for one user and date range into
// whoop_workouts. Returns the number of rows upserted.
func (s *Syncer) SyncUserWorkouts(ctx context.Context, userID uint64, startDate, endDate string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("syncer: not initialized")
	}

	token, errToken := s.tokens.AccessToken(ctx, userID)
	if errToken != nil {
		return 0, errToken
	}

	workouts, errFetch := s.client.Workouts(ctx, token, startDate, endDate)
	if errFetch != nil {
		return 0, fmt.Errorf("syncer: fetch workouts: %w", errFetch)
	}
	if len(workouts) == 0 {
		return 0, nil
	}

	rows := make([]models.WhoopWorkout, 0, len(workouts))
	for _, workout := range workouts {
		if workout.ID == "" {
			continue
		}
		rows = append(rows, buildWorkoutRow(userID, workout))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if errUpsert := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "workout_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sport_name",
			"start",
			"end",
			"strain",
			"average_heart_rate",
			"max_heart_rate",
			"kilojoule",
			"distance_meter",
			"raw",
			"updated_at",
		}),
	}).Create(&rows).Error; errUpsert != nil {
		return 0, fmt.Errorf("syncer: upsert workouts: %w", errUpsert)
	}
	return len(rows), nil
}

// buildMetricRows joins recovery and sleep records to their parent cycle and
// flattens each cycle into one DailyMetric. Two cycles mapping to the same
// calendar date collapse to the later one before the batch upsert, so the
// insert never conflicts with itself.
func buildMetricRows(userID uint64, cycles []whoop.Cycle, recoveries []whoop.Recovery, sleeps []whoop.Sleep) []models.DailyMetric {
	recoveryByCycle := make(map[int64]whoop.Recovery, len(recoveries))
	for _, recovery := range recoveries {
		if recovery.CycleID == 0 {
			continue
		}
		recoveryByCycle[recovery.CycleID] = recovery
	}
	sleepByCycle := make(map[int64]whoop.Sleep, len(sleeps))
	for _, sleep := range sleeps {
		if sleep.CycleID == 0 {
			continue
		}
		sleepByCycle[sleep.CycleID] = sleep
	}

	byDate := make(map[string]int)
	var rows []models.DailyMetric
	for _, cycle := range cycles {
		if cycle.Start.IsZero() {
			continue
		}
		date := cycle.Start.UTC().Format(dateLayout)
		row := buildMetricRow(userID, date, cycle, recoveryByCycle, sleepByCycle)
		if idx, seen := byDate[date]; seen {
			rows[idx] = row
			continue
		}
		byDate[date] = len(rows)
		rows = append(rows, row)
	}
	return rows
}

func buildMetricRow(userID uint64, date string, cycle whoop.Cycle, recoveryByCycle map[int64]whoop.Recovery, sleepByCycle map[int64]whoop.Sleep) models.DailyMetric {
	cycleID := cycle.ID
	row := models.DailyMetric{
		UserID:  userID,
		Date:    date,
		CycleID: &cycleID,
	}

	if cycle.Score != nil {
		strain := cycle.Score.Strain
		kilojoule := cycle.Score.Kilojoule
		avgHR := cycle.Score.AverageHeartRate
		maxHR := cycle.Score.MaxHeartRate
		row.Strain = &strain
		row.Kilojoule = &kilojoule
		row.AverageHeartRate = &avgHR
		row.MaxHeartRate = &maxHR
	}

	rawPayload := map[string]any{"cycle": cycle}

	if recovery, ok := recoveryByCycle[cycle.ID]; ok {
		rawPayload["recovery"] = recovery
		if recovery.Score != nil {
			score := recovery.Score.RecoveryScore
			hrv := recovery.Score.HRVRmssdMilli
			restingHR := recovery.Score.RestingHeartRate
			spO2 := recovery.Score.SpO2Percentage
			skinTemp := recovery.Score.SkinTempCelsius
			row.RecoveryScore = &score
			row.HRVMilli = &hrv
			row.RestingHeartRate = &restingHR
			row.SpO2Percentage = &spO2
			row.SkinTempCelsius = &skinTemp
		}
	}

	if sleep, ok := sleepByCycle[cycle.ID]; ok {
		rawPayload["sleep"] = sleep
		if sleep.Score != nil {
			duration := sleepDurationMinutes(sleep.Score.StageSummary)
			score := int(math.Round(sleep.Score.SleepPerformancePercentage))
			row.SleepDurationMinutes = &duration
			row.SleepScore = &score
		}
	}

	if raw, errMarshal := json.Marshal(rawPayload); errMarshal == nil {
		row.Raw = datatypes.JSON(raw)
	}
	return row
}

// sleepDurationMinutes sums actual sleep stages (light, slow-wave, REM);
// awake and no-data time are excluded.
func sleepDurationMinutes(stages whoop.SleepStages) int {
	totalMilli := stages.TotalLightSleepTimeMilli +
		stages.TotalSlowWaveSleepTimeMilli +
		stages.TotalREMSleepTimeMilli
	return int(math.Round(float64(totalMilli) / 60000.0))
}

func buildWorkoutRow(userID uint64, workout whoop.Workout) models.WhoopWorkout {
	row := models.WhoopWorkout{
		UserID:    userID,
		WorkoutID: workout.ID,
		SportName: workout.SportName,
		Start:     workout.Start,
		End:       workout.End,
	}
	if workout.Score != nil {
		strain := workout.Score.Strain
		avgHR := workout.Score.AverageHeartRate
		maxHR := workout.Score.MaxHeartRate
		kilojoule := workout.Score.Kilojoule
		row.Strain = &strain
		row.AverageHeartRate = &avgHR
		row.MaxHeartRate = &maxHR
		row.Kilojoule = &kilojoule
		row.DistanceMeter = workout.Score.DistanceMeter
	}
	if raw, errMarshal := json.Marshal(workout); errMarshal == nil {
		row.Raw = datatypes.JSON(raw)
	}
	return row
}
