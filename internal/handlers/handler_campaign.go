package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/groupcart/groupcart_backend/internal/middleware"
	"github.com/groupcart/groupcart_backend/internal/utils"
)

// campaignHandler handles HTTP requests related to campaigns.
type campaignHandler struct {
	campaignService portssvc.CampaignSvcFacade
	auditService    portssvc.AuditSvcFacade
	posthogClient   *utils.PosthogClientWrapper
}

// newCampaignHandler creates a new campaignHandler.
func newCampaignHandler(cs portssvc.CampaignSvcFacade, as portssvc.AuditSvcFacade, phc *utils.PosthogClientWrapper) *campaignHandler {
	return &campaignHandler{
		campaignService: cs,
		auditService:    as,
		posthogClient:   phc,
	}
}

// RegisterCampaignRoutes registers campaign specific routes. Exported so the
// handler tests can mount the same routes against mock services.
func RegisterCampaignRoutes(rg *gin.RouterGroup, campaignService portssvc.CampaignSvcFacade, auditService portssvc.AuditSvcFacade, posthogClient *utils.PosthogClientWrapper) {
	h := newCampaignHandler(campaignService, auditService, posthogClient)

	// Rate limit joins per IP: 30 requests per minute
	rate, _ := limiter.NewRateFromFormatted("30-M")
	store := memory.NewStore()
	joinLimiter := middleware.RateLimit(limiter.New(store, rate))

	campaigns := rg.Group("/campaigns")
	{
		campaigns.POST("", h.createCampaign)
		campaigns.GET("", h.listCampaigns)
		campaigns.GET("/:campaignID", h.getCampaign)
		campaigns.POST("/:campaignID/activate", h.activateCampaign)
		campaigns.POST("/:campaignID/cancel", h.cancelCampaign)
		campaigns.POST("/:campaignID/join", joinLimiter, h.joinCampaign)
		campaigns.GET("/:campaignID/progress", h.getCampaignProgress)
		campaigns.GET("/:campaignID/participants", h.listParticipants)
		campaigns.GET("/:campaignID/events", h.listCampaignEvents)
	}
}

// createCampaign godoc
// @Summary Create a new campaign
// @Description Creates a new draft group-buy campaign owned by the calling user.
// @Tags campaigns
// @Accept  json
// @Produce  json
// @Param   campaign body dto.CreateCampaignRequest true "Campaign details"
// @Success 201 {object} dto.CampaignResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create campaign"
// @Security BearerAuth
// @Router /campaigns [post]
func (h *campaignHandler) createCampaign(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateCampaign", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("creator_user_id", creatorUserID))

	campaign, err := h.campaignService.CreateCampaign(c.Request.Context(), req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating campaign", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to create campaign in service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign"})
		return
	}

	logger.Info("Campaign created successfully", slog.String("campaign_id", campaign.CampaignID))
	c.JSON(http.StatusCreated, dto.ToCampaignResponse(campaign))
}

// listCampaigns godoc
// @Summary List campaigns
// @Description Retrieves a paginated list of campaigns, optionally filtered by lifecycle status.
// @Tags campaigns
// @Produce  json
// @Param   status query []string false "Status filter, repeatable (DRAFT, SCHEDULED, ACTIVE, LOCKED, FULFILLED, EXPIRED, CANCELLED)"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token from a previous response"
// @Success 200 {object} dto.ListCampaignsResponse
// @Failure 400 {object} map[string]string "Invalid status filter"
// @Failure 500 {object} map[string]string "Failed to list campaigns"
// @Security BearerAuth
// @Router /campaigns [get]
func (h *campaignHandler) listCampaigns(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListCampaignsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListCampaigns", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	statuses := make([]domain.CampaignStatus, 0, len(params.Status))
	for _, raw := range params.Status {
		status, err := domain.ParseCampaignStatus(raw)
		if err != nil {
			logger.Warn("Invalid status filter in ListCampaigns", slog.String("status", raw))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		statuses = append(statuses, status)
	}

	campaigns, nextToken, err := h.campaignService.ListCampaigns(c.Request.Context(), statuses, params.Limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list campaigns from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list campaigns"})
		return
	}

	logger.Debug("Campaigns listed successfully", slog.Int("count", len(campaigns)))
	c.JSON(http.StatusOK, dto.ToListCampaignsResponse(campaigns, nextToken))
}

// getCampaign godoc
// @Summary Get a campaign
// @Description Retrieves a campaign by its ID.
// @Tags campaigns
// @Produce  json
// @Param   campaignID path string true "Campaign ID"
// @Success 200 {object} dto.CampaignResponse
// @Failure 404 {object} map[string]string "Campaign not found"
// @Failure 500 {object} map[string]string "Failed to retrieve campaign"
// @Security BearerAuth
// @Router /campaigns/{campaignID} [get]
func (h *campaignHandler) getCampaign(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	campaignID := c.Param("campaignID")

	campaign, err := h.campaignService.GetCampaign(c.Request.Context(), campaignID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Campaign not found", slog.String("campaign_id", campaignID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		logger.Error("Failed to get campaign from service", slog.String("error", err.Error()), slog.String("campaign_id", campaignID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve campaign"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCampaignResponse(campaign))
}

// activateCampaign godoc
// @Summary Activate a campaign
// @Description Moves a draft campaign to ACTIVE, or to SCHEDULED when its start time lies in the future. Seller only.
// @Tags campaigns
// @Produce  json
// @Param   campaignID path string true "Campaign ID"
// @Success 200 {object} dto.CampaignResponse
// @Failure 400 {object} map[string]string "Activation guard failed"
// @Failure 403 {object} map[string]string "Not the campaign seller"
// @Failure 404 {object} map[string]string "Campaign not found"
// @Failure 409 {object} map[string]string "Campaign is not in an activatable state"
// @Failure 500 {object} map[string]string "Failed to activate campaign"
// @Security BearerAuth
// @Router /campaigns/{campaignID}/activate [post]
func (h *campaignHandler) activateCampaign(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	campaignID := c.Param("campaignID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("campaign_id", campaignID), slog.String("user_id", userID))

	campaign, err := h.campaignService.ActivateCampaign(c.Request.Context(), campaignID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Campaign not found for activation")
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			logger.Warn("Non-seller attempted to activate campaign")
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the campaign seller can activate it"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Activation guard failed", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Campaign not activatable", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to activate campaign in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate campaign"})
		}
		return
	}

	logger.Info("Campaign activated successfully", slog.String("status", string(campaign.Status)))
	c.JSON(http.StatusOK, dto.ToCampaignResponse(campaign))
}

// cancelCampaign godoc
// @Summary Cancel a campaign
// @Description Cancels a non-terminal campaign and refunds every held contribution. Seller only.
// @Tags campaigns
// @Accept  json
// @Produce  json
// @Param   campaignID path string true "Campaign ID"
// @Param   cancellation body dto.CancelCampaignRequest true "Cancellation reason"
// @Success 200 {object} dto.CampaignResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Not the campaign seller"
// @Failure 404 {object} map[string]string "Campaign not found"
// @Failure 409 {object} map[string]string "Campaign already finished"
// @Failure 500 {object} map[string]string "Failed to cancel campaign"
// @Security BearerAuth
// @Router /campaigns/{campaignID}/cancel [post]
func (h *campaignHandler) cancelCampaign(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	campaignID := c.Param("campaignID")

	var req dto.CancelCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CancelCampaign", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("campaign_id", campaignID), slog.String("user_id", userID))

	campaign, err := h.campaignService.CancelCampaign(c.Request.Context(), campaignID, req.Reason, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Campaign not found for cancellation")
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		case errors.Is(err, apperrors.ErrForbidden):
			logger.Warn("Non-seller attempted to cancel campaign")
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the campaign seller can cancel it"})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Campaign already finished", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to cancel campaign in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel campaign"})
		}
		return
	}

	logger.Info("Campaign cancelled successfully")
	c.JSON(http.StatusOK, dto.ToCampaignResponse(campaign))
}

// joinCampaign godoc
// @Summary Join a campaign
// @Description Reserves slots, holds the contribution in escrow, and creates a participant for the calling user.
// @Tags campaigns
// @Accept  json
// @Produce  json
// @Param   campaignID path string true "Campaign ID"
// @Param   join body dto.JoinCampaignRequest true "Slot count and optional idempotency key"
// @Success 201 {object} dto.ParticipantResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 402 {object} map[string]string "Insufficient wallet balance"
// @Failure 404 {object} map[string]string "Campaign or wallet not found"
// @Failure 409 {object} map[string]string "Not enough open slots or campaign closed"
// @Failure 500 {object} map[string]string "Failed to join campaign"
// @Security BearerAuth
// @Router /campaigns/{campaignID}/join [post]
func (h *campaignHandler) joinCampaign(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	campaignID := c.Param("campaignID")

	var req dto.JoinCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for JoinCampaign", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	buyerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Buyer user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("campaign_id", campaignID), slog.String("buyer_id", buyerID))

	participant, err := h.campaignService.JoinCampaign(c.Request.Context(), campaignID, req, buyerID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInsufficientSlots):
			logger.Warn("Join rejected, not enough open slots", slog.Int("slot_count", req.SlotCount))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrCampaignClosed):
			logger.Warn("Join rejected, campaign closed", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrInsufficientBalance):
			logger.Warn("Join rejected, insufficient balance", slog.String("error", err.Error()))
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrWalletNotFound):
			logger.Warn("Join rejected, buyer has no wallet")
			c.JSON(http.StatusNotFound, gin.H{"error": "No wallet found for the calling user"})
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Campaign not found for join")
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error joining campaign", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Join conflict", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to join campaign in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join campaign"})
		}
		return
	}

	h.posthogClient.Enqueue(buyerID, "campaign_joined", map[string]any{
		"campaign_id":  campaignID,
		"slot_count":   participant.SlotCount,
		"contribution": participant.ContributionAmount.String(),
		"currency":     participant.CurrencyCode,
	})

	logger.Info("Campaign joined successfully",
		slog.String("participant_id", participant.ParticipantID),
		slog.Int("slot_count", participant.SlotCount))
	c.JSON(http.StatusCreated, dto.ToParticipantResponse(participant))
}

// getCampaignProgress godoc
// @Summary Get campaign progress
// @Description Retrieves the read-only progress aggregate for a campaign: slot counts, percentage, participant count, total contribution.
// @Tags campaigns
// @Produce  json
// @Param   campaignID path string true "Campaign ID"
// @Success 200 {object} dto.CampaignProgressResponse
// @Failure 404 {object} map[string]string "Campaign not found"
// @Failure 500 {object} map[string]string "Failed to retrieve progress"
// @Security BearerAuth
// @Router /campaigns/{campaignID}/progress [get]
func (h *campaignHandler) getCampaignProgress(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	campaignID := c.Param("campaignID")

	progress, err := h.campaignService.GetCampaignProgress(c.Request.Context(), campaignID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Campaign not found for progress", slog.String("campaign_id", campaignID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		logger.Error("Failed to get campaign progress from service", slog.String("error", err.Error()), slog.String("campaign_id", campaignID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve progress"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCampaignProgressResponse(progress))
}

// listParticipants godoc
// @Summary List campaign participants
// @Description Retrieves all participants of a campaign.
// @Tags campaigns
// @Produce  json
// @Param   campaignID path string true "Campaign ID"
// @Success 200 {object} dto.ListParticipantsResponse
// @Failure 404 {object} map[string]string "Campaign not found"
// @Failure 500 {object} map[string]string "Failed to list participants"
// @Security BearerAuth
// @Router /campaigns/{campaignID}/participants [get]
func (h *campaignHandler) listParticipants(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	campaignID := c.Param("campaignID")

	participants, err := h.campaignService.ListParticipants(c.Request.Context(), campaignID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Campaign not found for participant listing", slog.String("campaign_id", campaignID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		logger.Error("Failed to list participants from service", slog.String("error", err.Error()), slog.String("campaign_id", campaignID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list participants"})
		return
	}

	logger.Debug("Participants listed successfully", slog.String("campaign_id", campaignID), slog.Int("count", len(participants)))
	c.JSON(http.StatusOK, dto.ToListParticipantsResponse(participants))
}

// listCampaignEvents godoc
// @Summary List campaign audit events
// @Description Retrieves a paginated slice of the campaign's append-only audit trail, newest first.
// @Tags campaigns
// @Produce  json
// @Param   campaignID path string true "Campaign ID"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Pagination token from a previous response"
// @Success 200 {object} dto.ListAuditEventsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list events"
// @Security BearerAuth
// @Router /campaigns/{campaignID}/events [get]
func (h *campaignHandler) listCampaignEvents(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	campaignID := c.Param("campaignID")

	var params dto.ListAuditEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListCampaignEvents", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	events, nextToken, err := h.auditService.ListCampaignEvents(c.Request.Context(), campaignID, params.Limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list campaign events from service", slog.String("error", err.Error()), slog.String("campaign_id", campaignID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	logger.Debug("Campaign events listed successfully", slog.String("campaign_id", campaignID), slog.Int("count", len(events)))
	c.JSON(http.StatusOK, dto.ToListAuditEventsResponse(events, nextToken))
}
