package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prepmate/practice-service/internal/analytics"
	"github.com/prepmate/practice-service/internal/repositories"
)

type AnalyticsHandler struct {
	aggregator *analytics.Aggregator
	summaries  repositories.SessionSummaryRepository
	logger     *slog.Logger
}

func NewAnalyticsHandler(aggregator *analytics.Aggregator, summaries repositories.SessionSummaryRepository, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		aggregator: aggregator,
		summaries:  summaries,
		logger:     logger,
	}
}

// GetSummary returns the user's progress report.
// @Summary Get user progress summary
// @Tags analytics
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} SuccessResponse{data=analytics.Summary}
// @Router /users/{user_id}/summary [get]
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "user_id is required"})
		return
	}

	summary := h.aggregator.Summary(c.Request.Context(), userID)
	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Summary retrieved successfully",
		Data:    summary,
	})
}

// GetSessions returns the user's recent session summaries.
// @Summary List recent practice sessions
// @Tags analytics
// @Produce json
// @Param user_id path string true "User ID"
// @Param limit query int false "Max sessions to return" default(20)
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{user_id}/sessions [get]
func (h *AnalyticsHandler) GetSessions(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "user_id is required"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	rows, err := h.summaries.GetByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("Failed to load session summaries",
			"user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to retrieve sessions",
		})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Sessions retrieved successfully",
		Data:    rows,
	})
}
