package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitalsync/vitalsync/internal/syncer"
	"github.com/vitalsync/vitalsync/internal/whoop"
)

// maxSyncDays bounds how far back a manual sync may reach.
const maxSyncDays = 90

// SyncHandler serves the sync trigger endpoints.
type SyncHandler struct {
	syncer *syncer.Syncer
	now    func() time.Time
}

// NewSyncHandler constructs a SyncHandler.
func NewSyncHandler(s *syncer.Syncer) *SyncHandler {
	return &SyncHandler{syncer: s, now: time.Now}
}

// RunBatch syncs every connected user over the configured window. Individual
// user failures are reported, not propagated, so the response is always 200.
func (h *SyncHandler) RunBatch(c *gin.Context) {
	report := h.syncer.SyncAllUsers(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success":       report.Failed == 0,
		"succeeded":     report.Succeeded,
		"failed":        report.Failed,
		"total_records": report.TotalRecords,
		"results":       report.Results,
	})
}

type syncMeRequest struct {
	Days int `json:"days"`
}

// SyncMe syncs the authenticated user over a caller-chosen number of days
// counting back from today inclusive.
func (h *SyncHandler) SyncMe(c *gin.Context) {
	userID, ok := UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req syncMeRequest
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&req); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Days < 1 || req.Days > maxSyncDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
		return
	}

	end := h.now().UTC()
	start := end.AddDate(0, 0, -(req.Days - 1))
	startDate, endDate := start.Format(dateLayout), end.Format(dateLayout)

	metrics, errMetrics := h.syncer.SyncUserMetrics(c.Request.Context(), userID, startDate, endDate)
	if errMetrics != nil {
		h.renderSyncError(c, errMetrics)
		return
	}
	workouts, errWorkouts := h.syncer.SyncUserWorkouts(c.Request.Context(), userID, startDate, endDate)
	if errWorkouts != nil {
		h.renderSyncError(c, errWorkouts)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"start_date": startDate,
		"end_date":   endDate,
		"metrics":    metrics,
		"workouts":   workouts,
	})
}

func (h *SyncHandler) renderSyncError(c *gin.Context, err error) {
	if errors.Is(err, whoop.ErrNotConnected) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "whoop not connected"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
}
