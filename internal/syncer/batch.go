package syncer

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vitalsync/vitalsync/internal/whoop"
)

// UserResult is the per-user outcome of a batch sync.
type UserResult struct {
	UserID   uint64 `json:"user_id"`
	Metrics  int    `json:"metrics"`
	Workouts int    `json:"workouts"`
	Error    string `json:"error,omitempty"`
}

// BatchReport summarizes one batch sync over all connected users.
type BatchReport struct {
	Results      []UserResult `json:"results"`
	Succeeded    int          `json:"succeeded"`
	Failed       int          `json:"failed"`
	TotalRecords int          `json:"total_records"`
}

// SyncAllUsers runs metrics and workout sync for every connected user over
// the configured window. One user's failure never aborts the rest; the
// report carries per-user outcomes and counts only successful users' records.
func (s *Syncer) SyncAllUsers(ctx context.Context) BatchReport {
	var report BatchReport
	if s == nil || s.store == nil {
		report.Failed = 1
		report.Results = []UserResult{{Error: "syncer: not initialized"}}
		return report
	}

	userIDs, errList := s.store.ConnectedUserIDs(ctx)
	if errList != nil {
		log.WithError(errList).Error("whoop syncer: list connected users failed")
		report.Failed = 1
		report.Results = []UserResult{{Error: errList.Error()}}
		return report
	}

	startDate, endDate := s.Window()
	for _, userID := range userIDs {
		result := s.syncOneUser(ctx, userID, startDate, endDate)
		report.Results = append(report.Results, result)
		if result.Error != "" {
			report.Failed++
			continue
		}
		report.Succeeded++
		report.TotalRecords += result.Metrics + result.Workouts
	}
	return report
}

func (s *Syncer) syncOneUser(ctx context.Context, userID uint64, startDate, endDate string) UserResult {
	result := UserResult{UserID: userID}

	metrics, errMetrics := s.SyncUserMetrics(ctx, userID, startDate, endDate)
	if errMetrics != nil {
		result.Error = errMetrics.Error()
		s.logUserFailure(userID, errMetrics)
		return result
	}
	result.Metrics = metrics

	workouts, errWorkouts := s.SyncUserWorkouts(ctx, userID, startDate, endDate)
	if errWorkouts != nil {
		result.Error = errWorkouts.Error()
		s.logUserFailure(userID, errWorkouts)
		return result
	}
	result.Workouts = workouts
	return result
}

func (s *Syncer) logUserFailure(userID uint64, err error) {
	if errors.Is(err, whoop.ErrNotConnected) {
		log.WithField("user_id", userID).Info("whoop syncer: user not connected, skipping")
		return
	}
	log.WithError(err).WithField("user_id", userID).Warn("whoop syncer: user sync failed")
}
