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
	"github.com/groupcart/groupcart_backend/internal/utils"
)

// participantHandler handles HTTP requests related to individual participants.
type participantHandler struct {
	campaignService portssvc.CampaignSvcFacade
	posthogClient   *utils.PosthogClientWrapper
}

// newParticipantHandler creates a new participantHandler.
func newParticipantHandler(cs portssvc.CampaignSvcFacade, phc *utils.PosthogClientWrapper) *participantHandler {
	return &participantHandler{
		campaignService: cs,
		posthogClient:   phc,
	}
}

// registerParticipantRoutes registers participant specific routes.
func registerParticipantRoutes(rg *gin.RouterGroup, campaignService portssvc.CampaignSvcFacade, posthogClient *utils.PosthogClientWrapper) {
	h := newParticipantHandler(campaignService, posthogClient)

	participants := rg.Group("/participants")
	{
		participants.GET("/:participantID", h.getParticipant)
		participants.POST("/:participantID/cancel", h.cancelParticipation)
	}
}

// getParticipant godoc
// @Summary Get a participant
// @Description Retrieves a participant by its ID.
// @Tags participants
// @Produce  json
// @Param   participantID path string true "Participant ID"
// @Success 200 {object} dto.ParticipantResponse
// @Failure 404 {object} map[string]string "Participant not found"
// @Failure 500 {object} map[string]string "Failed to retrieve participant"
// @Security BearerAuth
// @Router /participants/{participantID} [get]
func (h *participantHandler) getParticipant(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	participantID := c.Param("participantID")

	participant, err := h.campaignService.GetParticipant(c.Request.Context(), participantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Participant not found", slog.String("participant_id", participantID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
			return
		}
		logger.Error("Failed to get participant from service", slog.String("error", err.Error()), slog.String("participant_id", participantID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve participant"})
		return
	}

	c.JSON(http.StatusOK, dto.ToParticipantResponse(participant))
}

// cancelParticipation godoc
// @Summary Cancel a participation
// @Description Refunds the escrow hold, releases the reserved slots, and marks the participant cancelled. Allowed for the buyer or the campaign seller.
// @Tags participants
// @Accept  json
// @Produce  json
// @Param   participantID path string true "Participant ID"
// @Param   cancellation body dto.CancelParticipationRequest false "Optional cancellation reason"
// @Success 200 {object} dto.ParticipantResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Not the buyer or seller"
// @Failure 404 {object} map[string]string "Participant not found"
// @Failure 409 {object} map[string]string "Participation already settled"
// @Failure 500 {object} map[string]string "Failed to cancel participation"
// @Security BearerAuth
// @Router /participants/{participantID}/cancel [post]
func (h *participantHandler) cancelParticipation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	participantID := c.Param("participantID")

	// The body is optional; an empty reason is acceptable.
	var req dto.CancelParticipationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for CancelParticipation", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("participant_id", participantID), slog.String("user_id", userID))

	participant, err := h.campaignService.CancelParticipation(c.Request.Context(), participantID, req.Reason, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Participant not found for cancellation")
			c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			logger.Warn("Caller is neither the buyer nor the seller")
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the buyer or the campaign seller can cancel a participation"})
		case errors.Is(err, apperrors.ErrInvalidHoldState):
			logger.Warn("Hold already settled", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Participation not cancellable", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to cancel participation in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel participation"})
		}
		return
	}

	h.posthogClient.Enqueue(userID, "participation_cancelled", map[string]any{
		"participant_id": participantID,
		"campaign_id":    participant.CampaignID,
		"slot_count":     participant.SlotCount,
	})

	logger.Info("Participation cancelled successfully", slog.String("campaign_id", participant.CampaignID))
	c.JSON(http.StatusOK, dto.ToParticipantResponse(participant))
}
