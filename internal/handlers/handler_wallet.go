package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/groupcart/groupcart_backend/internal/middleware"
)

// walletHandler handles HTTP requests related to wallets and their ledger trail.
type walletHandler struct {
	escrowService portssvc.EscrowSvcFacade
}

// newWalletHandler creates a new walletHandler.
func newWalletHandler(es portssvc.EscrowSvcFacade) *walletHandler {
	return &walletHandler{
		escrowService: es,
	}
}

// registerWalletRoutes registers wallet specific routes.
func registerWalletRoutes(rg *gin.RouterGroup, escrowService portssvc.EscrowSvcFacade) {
	h := newWalletHandler(escrowService)

	wallets := rg.Group("/wallets")
	{
		wallets.POST("", h.createWallet)
		wallets.GET("/me", h.getMyWallet)
		wallets.GET("/:walletID", h.getWallet)
		wallets.GET("/:walletID/entries", h.listWalletEntries)
	}
}

// loadAuthorizedWallet fetches the wallet and verifies the caller owns it.
// A nil wallet return means the response has already been written.
func (h *walletHandler) loadAuthorizedWallet(c *gin.Context, logger *slog.Logger, walletID string) *domain.Wallet {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil
	}

	wallet, err := h.escrowService.GetWallet(c.Request.Context(), walletID)
	if err != nil {
		if errors.Is(err, apperrors.ErrWalletNotFound) {
			logger.Warn("Wallet not found", slog.String("wallet_id", walletID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return nil
		}
		logger.Error("Failed to get wallet from service", slog.String("error", err.Error()), slog.String("wallet_id", walletID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve wallet"})
		return nil
	}

	if wallet.ActorID != userID {
		logger.Warn("Caller does not own wallet", slog.String("wallet_id", walletID), slog.String("user_id", userID))
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this wallet"})
		return nil
	}

	return wallet
}

// createWallet godoc
// @Summary Provision a wallet
// @Description Creates a wallet for an actor. Registration provisions buyer wallets automatically; this endpoint covers operator-driven provisioning.
// @Tags wallets
// @Accept  json
// @Produce  json
// @Param   wallet body dto.CreateWalletRequest true "Actor and currency"
// @Success 201 {object} dto.WalletResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Actor already has a wallet"
// @Failure 500 {object} map[string]string "Failed to create wallet"
// @Security BearerAuth
// @Router /wallets [post]
func (h *walletHandler) createWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateWallet", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("creator_user_id", creatorUserID), slog.String("actor_id", req.ActorID))

	wallet, err := h.escrowService.CreateWallet(c.Request.Context(), req.ActorID, req.CurrencyCode, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			logger.Warn("Actor already has a wallet")
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating wallet", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create wallet in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create wallet"})
		}
		return
	}

	logger.Info("Wallet created successfully", slog.String("wallet_id", wallet.WalletID))
	c.JSON(http.StatusCreated, dto.ToWalletResponse(wallet))
}

// getMyWallet godoc
// @Summary Get the calling user's wallet
// @Description Retrieves the wallet owned by the authenticated user.
// @Tags wallets
// @Produce  json
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No wallet for the calling user"
// @Failure 500 {object} map[string]string "Failed to retrieve wallet"
// @Security BearerAuth
// @Router /wallets/me [get]
func (h *walletHandler) getMyWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	wallet, err := h.escrowService.GetWalletByActor(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrWalletNotFound) {
			logger.Warn("No wallet for calling user", slog.String("user_id", userID))
			c.JSON(http.StatusNotFound, gin.H{"error": "No wallet found for the calling user"})
			return
		}
		logger.Error("Failed to get wallet from service", slog.String("error", err.Error()), slog.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve wallet"})
		return
	}

	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// getWallet godoc
// @Summary Get a wallet
// @Description Retrieves a wallet by its ID. Only the wallet owner may read it.
// @Tags wallets
// @Produce  json
// @Param   walletID path string true "Wallet ID"
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not the wallet owner"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to retrieve wallet"
// @Security BearerAuth
// @Router /wallets/{walletID} [get]
func (h *walletHandler) getWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	walletID := c.Param("walletID")

	wallet := h.loadAuthorizedWallet(c, logger, walletID)
	if wallet == nil {
		return
	}

	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// listWalletEntries godoc
// @Summary List a wallet's ledger entries
// @Description Retrieves a paginated list of the wallet's ledger entries, newest first. Only the wallet owner may read them.
// @Tags wallets
// @Produce  json
// @Param   walletID path string true "Wallet ID"
// @Param   limit query int false "Page size" default(50)
// @Param   nextToken query string false "Pagination token from a previous response"
// @Success 200 {object} dto.ListLedgerEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not the wallet owner"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to list entries"
// @Security BearerAuth
// @Router /wallets/{walletID}/entries [get]
func (h *walletHandler) listWalletEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	walletID := c.Param("walletID")

	var params dto.ListWalletEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListWalletEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	if wallet := h.loadAuthorizedWallet(c, logger, walletID); wallet == nil {
		return
	}

	entries, nextToken, err := h.escrowService.ListWalletEntries(c.Request.Context(), walletID, params.Limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list wallet entries from service", slog.String("error", err.Error()), slog.String("wallet_id", walletID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list entries"})
		return
	}

	logger.Debug("Wallet entries listed successfully", slog.String("wallet_id", walletID), slog.Int("count", len(entries)))
	c.JSON(http.StatusOK, dto.ToListLedgerEntriesResponse(entries, nextToken))
}
