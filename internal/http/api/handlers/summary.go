package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitalsync/vitalsync/internal/aggregate"
)

// SummaryHandler serves the daily summary endpoints.
type SummaryHandler struct {
	aggregator *aggregate.Aggregator
}

// NewSummaryHandler constructs a SummaryHandler.
func NewSummaryHandler(aggregator *aggregate.Aggregator) *SummaryHandler {
	return &SummaryHandler{aggregator: aggregator}
}

// Get computes and returns the summary for one date without persisting it.
func (h *SummaryHandler) Get(c *gin.Context) {
	userID, ok := UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	date := c.Param("date")
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	summary, errAggregate := h.aggregator.Aggregate(c.Request.Context(), userID, date)
	if errAggregate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregate failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Rebuild recomputes the summary for one date and persists the document.
func (h *SummaryHandler) Rebuild(c *gin.Context) {
	userID, ok := UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	date := c.Param("date")
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	summary, errSync := h.aggregator.Sync(c.Request.Context(), userID, date)
	if errSync != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rebuild failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
