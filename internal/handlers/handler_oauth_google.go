package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/middleware"
	"github.com/groupcart/groupcart_backend/internal/platform/config"
)

// googleOAuthHandler handles the Google sign-in code exchange.
type googleOAuthHandler struct {
	cfg                *config.Config
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade
	userService        portssvc.UserSvcFacade
	tokenService       portssvc.TokenSvcFacade
}

// newGoogleOAuthHandler creates a new googleOAuthHandler.
func newGoogleOAuthHandler(cfg *config.Config, gs portssvc.GoogleOAuthHandlerSvcFacade, us portssvc.UserSvcFacade, ts portssvc.TokenSvcFacade) *googleOAuthHandler {
	return &googleOAuthHandler{
		cfg:                cfg,
		googleOAuthService: gs,
		userService:        us,
		tokenService:       ts,
	}
}

// registerGoogleOAuthRoutes registers the Google OAuth routes under the auth group.
func registerGoogleOAuthRoutes(rg *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := newGoogleOAuthHandler(cfg, services.GoogleOAuth, services.User, services.Token)

	googleRoutes := rg.Group("/google")
	{
		googleRoutes.POST("/exchange-code", h.exchangeCodeGoogle)
	}
}

// ExchangeCodeRequest defines the JSON body for the /google/exchange-code endpoint.
type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ExchangeCodeResponse defines the successful response for the /google/exchange-code endpoint.
type ExchangeCodeResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// exchangeCodeGoogle handles the POST request from the frontend containing the
// authorization code from Google. It exchanges the code for Google tokens,
// validates the ID token, finds or creates the user, and issues an application
// session (JWT access token plus refresh cookie).
// @Summary Exchange a Google authorization code for an application session
// @Description Exchanges the authorization code, validates Google's ID token, signs the user in (creating the account and wallet on first login), and returns an application JWT.
// @Tags oauth
// @Accept  json
// @Produce  json
// @Param   code body ExchangeCodeRequest true "Authorization code"
// @Success 200 {object} map[string]ExchangeCodeResponse
// @Failure 400 {object} apperrors.AppError "Invalid or expired authorization code"
// @Failure 401 {object} apperrors.AppError "ID token validation failed"
// @Failure 500 {object} apperrors.AppError "Failed to process the sign-in"
// @Router /auth/google/exchange-code [post]
func (h *googleOAuthHandler) exchangeCodeGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	var req ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for exchange code request", slog.String("error", err.Error()))
		appErr := apperrors.NewBadRequestError("Invalid request payload: " + err.Error())
		c.JSON(appErr.Code, appErr)
		return
	}

	oauth2Token, err := h.googleOAuthService.ExchangeCodeForToken(ctx, req.Code)
	if err != nil {
		logger.Error("Failed to exchange authorization code with Google", slog.String("error", err.Error()))
		appErr := apperrors.NewGatewayTimeoutError("Failed to communicate with Google OAuth service.")
		if strings.Contains(strings.ToLower(err.Error()), "invalid_grant") || strings.Contains(strings.ToLower(err.Error()), "bad request") {
			appErr = apperrors.NewBadRequestError("Invalid or expired authorization code provided by Google.")
		}
		c.JSON(appErr.Code, appErr)
		return
	}

	idTokenString, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idTokenString == "" {
		logger.Error("ID token not found in Google's token response")
		appErr := apperrors.NewInternalServerError("Failed to retrieve ID token from Google.")
		c.JSON(appErr.Code, appErr)
		return
	}

	payload, err := h.googleOAuthService.ValidateGoogleIDToken(ctx, idTokenString)
	if err != nil {
		logger.Error("Google ID token validation failed", slog.String("error", err.Error()))
		appErr := apperrors.NewUnauthorizedError("Invalid Google ID token.")
		c.JSON(appErr.Code, appErr)
		return
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)
	subject := payload.Subject

	if email == "" || subject == "" {
		logger.Error("Essential claims missing from Google ID token payload", slog.Any("claims", payload.Claims))
		appErr := apperrors.NewInternalServerError("Essential user information missing from Google token.")
		c.JSON(appErr.Code, appErr)
		return
	}

	logger = logger.With(slog.String("google_user_id", subject))

	user, err := h.userService.FindOrCreateUserByGoogleDetails(ctx, domain.GoogleUserInfo{
		ID:            subject,
		Email:         email,
		VerifiedEmail: emailVerified,
		Name:          name,
	})
	if err != nil {
		logger.Error("Failed to find or create Google user", slog.String("error", err.Error()))
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			appErr = apperrors.NewInternalServerError("Failed to process user authentication.")
		}
		c.JSON(appErr.Code, appErr)
		return
	}

	accessToken, expiresAt, err := issueSession(c, h.cfg, h.userService, h.tokenService, user)
	if err != nil {
		logger.Error("Failed to issue session for Google user", slog.String("error", err.Error()), slog.String("user_id", user.UserID))
		appErr := apperrors.NewInternalServerError("Failed to generate access token.")
		c.JSON(appErr.Code, appErr)
		return
	}

	logger.Info("User signed in via Google OAuth", slog.String("user_id", user.UserID))
	c.JSON(http.StatusOK, gin.H{
		"data": ExchangeCodeResponse{
			Token:     accessToken,
			ExpiresAt: expiresAt,
		},
	})
}
