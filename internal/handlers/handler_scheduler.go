package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/groupcart/groupcart_backend/internal/middleware"
)

// schedulerHandler exposes the lifecycle scheduler's status and manual trigger.
type schedulerHandler struct {
	schedulerService portssvc.SchedulerSvc
}

// newSchedulerHandler creates a new schedulerHandler.
func newSchedulerHandler(ss portssvc.SchedulerSvc) *schedulerHandler {
	return &schedulerHandler{
		schedulerService: ss,
	}
}

// registerSchedulerRoutes registers scheduler specific routes.
func registerSchedulerRoutes(rg *gin.RouterGroup, schedulerService portssvc.SchedulerSvc) {
	h := newSchedulerHandler(schedulerService)

	scheduler := rg.Group("/scheduler")
	{
		scheduler.GET("/status", h.getStatus)
		scheduler.POST("/trigger", h.triggerLifecycle)
	}
}

// getStatus godoc
// @Summary Get scheduler status
// @Description Reports the lifecycle scheduler's health snapshot: running state, last run, counters.
// @Tags scheduler
// @Produce  json
// @Success 200 {object} dto.SchedulerStatusResponse
// @Security BearerAuth
// @Router /scheduler/status [get]
func (h *schedulerHandler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToSchedulerStatusResponse(h.schedulerService.Status()))
}

// triggerLifecycle godoc
// @Summary Trigger a lifecycle pass
// @Description Runs one lifecycle pass synchronously through the same single-flight gate the timer uses, and returns the transitions applied.
// @Tags scheduler
// @Produce  json
// @Success 200 {object} dto.TriggerLifecycleResponse
// @Failure 409 {object} map[string]string "A pass is already in flight"
// @Failure 500 {object} map[string]string "Lifecycle pass failed"
// @Security BearerAuth
// @Router /scheduler/trigger [post]
func (h *schedulerHandler) triggerLifecycle(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("user_id", userID))
	logger.Info("Manual lifecycle pass requested")

	transitions, err := h.schedulerService.TriggerNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Lifecycle pass already in flight")
			c.JSON(http.StatusConflict, gin.H{"error": "A lifecycle pass is already in flight"})
			return
		}
		logger.Error("Manual lifecycle pass failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lifecycle pass failed"})
		return
	}

	logger.Info("Manual lifecycle pass finished", slog.Int("transitions", len(transitions)))
	c.JSON(http.StatusOK, dto.ToTriggerLifecycleResponse(transitions))
}
