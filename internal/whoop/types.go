// Package whoop talks to the Whoop developer API: OAuth token lifecycle and
// cursor-paginated collection endpoints for cycles, recovery, sleep and
// workouts.
package whoop

import "time"

// Cycle is one physiological day cycle. End is nil while the cycle is still
// in progress; such cycles are accepted as partial data.
type Cycle struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	Start          time.Time   `json:"start"`
	End            *time.Time  `json:"end"`
	TimezoneOffset string      `json:"timezone_offset"`
	ScoreState     string      `json:"score_state"`
	Score          *CycleScore `json:"score"`
}

// CycleScore holds scoring data for a cycle.
type CycleScore struct {
	Strain           float64 `json:"strain"`
	Kilojoule        float64 `json:"kilojoule"`
	AverageHeartRate int     `json:"average_heart_rate"`
	MaxHeartRate     int     `json:"max_heart_rate"`
}

// Recovery is the recovery record attached to a cycle.
type Recovery struct {
	CycleID    int64          `json:"cycle_id"`
	SleepID    string         `json:"sleep_id"`
	UserID     int64          `json:"user_id"`
	ScoreState string         `json:"score_state"`
	Score      *RecoveryScore `json:"score"`
}

// RecoveryScore holds recovery scoring data.
type RecoveryScore struct {
	UserCalibrating  bool    `json:"user_calibrating"`
	RecoveryScore    float64 `json:"recovery_score"`
	RestingHeartRate float64 `json:"resting_heart_rate"`
	HRVRmssdMilli    float64 `json:"hrv_rmssd_milli"`
	SpO2Percentage   float64 `json:"spo2_percentage"`
	SkinTempCelsius  float64 `json:"skin_temp_celsius"`
}

// Sleep is one sleep activity attached to a cycle.
type Sleep struct {
	ID         string      `json:"id"`
	CycleID    int64       `json:"cycle_id"`
	UserID     int64       `json:"user_id"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Nap        bool        `json:"nap"`
	ScoreState string      `json:"score_state"`
	Score      *SleepScore `json:"score"`
}

// SleepScore holds sleep scoring data.
type SleepScore struct {
	StageSummary               SleepStages `json:"stage_summary"`
	RespiratoryRate            float64     `json:"respiratory_rate"`
	SleepPerformancePercentage float64     `json:"sleep_performance_percentage"`
	SleepEfficiencyPercentage  float64     `json:"sleep_efficiency_percentage"`
}

// SleepStages holds stage duration data in milliseconds.
type SleepStages struct {
	TotalInBedTimeMilli         int64 `json:"total_in_bed_time_milli"`
	TotalAwakeTimeMilli         int64 `json:"total_awake_time_milli"`
	TotalNoDataTimeMilli        int64 `json:"total_no_data_time_milli"`
	TotalLightSleepTimeMilli    int64 `json:"total_light_sleep_time_milli"`
	TotalSlowWaveSleepTimeMilli int64 `json:"total_slow_wave_sleep_time_milli"`
	TotalREMSleepTimeMilli      int64 `json:"total_rem_sleep_time_milli"`
	SleepCycleCount             int   `json:"sleep_cycle_count"`
	DisturbanceCount            int   `json:"disturbance_count"`
}

// Workout is one remote workout instance.
type Workout struct {
	ID         string        `json:"id"`
	UserID     int64         `json:"user_id"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	SportName  string        `json:"sport_name"`
	ScoreState string        `json:"score_state"`
	Score      *WorkoutScore `json:"score"`
}

// WorkoutScore holds workout scoring data.
type WorkoutScore struct {
	Strain           float64  `json:"strain"`
	AverageHeartRate int      `json:"average_heart_rate"`
	MaxHeartRate     int      `json:"max_heart_rate"`
	Kilojoule        float64  `json:"kilojoule"`
	DistanceMeter    *float64 `json:"distance_meter"`
}

// Profile is the basic user profile.
type Profile struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
