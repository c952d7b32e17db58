package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/groupcart/groupcart_backend/internal/middleware"
	"github.com/groupcart/groupcart_backend/internal/platform/config"
	"github.com/groupcart/groupcart_backend/internal/utils"
)

// refreshCookieSeparator joins the user ID and the raw refresh token inside
// the cookie value, so the refresh endpoint can look up the stored hash
// without a session table.
const refreshCookieSeparator = ":"

// authHandler handles registration, sign-in, and refresh-token rotation.
type authHandler struct {
	cfg          *config.Config
	userService  portssvc.UserSvcFacade
	tokenService portssvc.TokenSvcFacade
}

// newAuthHandler creates a new authHandler.
func newAuthHandler(cfg *config.Config, us portssvc.UserSvcFacade, ts portssvc.TokenSvcFacade) *authHandler {
	return &authHandler{
		cfg:          cfg,
		userService:  us,
		tokenService: ts,
	}
}

// registerAuthRoutes sets up the public authentication routes.
func registerAuthRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := newAuthHandler(cfg, services.User, services.Token)

	// Rate limit sign-in attempts per IP: 5 requests per minute
	rate, _ := limiter.NewRateFromFormatted("5-M")
	store := memory.NewStore()
	loginLimiter := middleware.GinMiddlewarize(limiter.New(store, rate))

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", loginLimiter, h.login)
		auth.POST("/refresh", h.refresh)
	}

	registerGoogleOAuthRoutes(auth, cfg, services)
}

// registerSessionRoutes sets up the authenticated session routes.
func registerSessionRoutes(rg *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer) {
	h := newAuthHandler(cfg, services.User, services.Token)

	auth := rg.Group("/auth")
	{
		auth.POST("/logout", h.logout)
	}
}

// setRefreshCookie writes the HTTP-only refresh cookie scoped to the auth routes.
func setRefreshCookie(c *gin.Context, cfg *config.Config, userID, rawToken string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cfg.RefreshTokenCookieName, userID+refreshCookieSeparator+rawToken, maxAge, cfg.RefreshTokenCookiePath, "", cfg.IsProduction, true)
}

// clearRefreshCookie expires the refresh cookie.
func clearRefreshCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cfg.RefreshTokenCookieName, "", -1, cfg.RefreshTokenCookiePath, "", cfg.IsProduction, true)
}

// issueSession generates an access token for the user, rotates their stored
// refresh token, and sets the refresh cookie on the response. Only the hash
// of the refresh token is persisted.
func issueSession(c *gin.Context, cfg *config.Config, userService portssvc.UserSvcFacade, tokenService portssvc.TokenSvcFacade, user *domain.User) (string, time.Time, error) {
	ctx := c.Request.Context()

	accessToken, accessExpiry, err := tokenService.GenerateAccessToken(ctx, user)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	rawRefresh, refreshExpiry, err := tokenService.GenerateRefreshToken(ctx, user)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := userService.UpdateRefreshToken(ctx, user.UserID, utils.HashRefreshToken(rawRefresh), refreshExpiry); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	setRefreshCookie(c, cfg, user.UserID, rawRefresh, refreshExpiry)
	return accessToken, accessExpiry, nil
}

// register godoc
// @Summary Register new user
// @Description Creates a new user account and provisions their escrow wallet.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   register body dto.CreateUserRequest true "User registration info"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Username already taken"
// @Failure 500 {object} map[string]string "Failed to register user"
// @Router /auth/register [post]
func (h *authHandler) register(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Register", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	newUser, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			logger.Warn("Registration rejected, username taken", slog.String("username", req.Username))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error registering user", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to register user", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		}
		return
	}

	logger.Info("User registered successfully", slog.String("user_id", newUser.UserID))
	c.JSON(http.StatusCreated, dto.ToUserResponse(newUser))
}

// login godoc
// @Summary User login
// @Description Authenticates a user, returns a JWT access token, and sets the HTTP-only refresh cookie.
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   login body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Invalid username or password"
// @Failure 500 {object} map[string]string "Failed to sign in"
// @Router /auth/login [post]
func (h *authHandler) login(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Login", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	user, err := h.userService.AuthenticateUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			logger.Warn("Login rejected", slog.String("username", req.Username))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		logger.Error("Failed to authenticate user", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	accessToken, expiresAt, err := issueSession(c, h.cfg, h.userService, h.tokenService, user)
	if err != nil {
		logger.Error("Failed to issue session", slog.String("error", err.Error()), slog.String("user_id", user.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	logger.Info("User logged in successfully", slog.String("user_id", user.UserID))
	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     accessToken,
		ExpiresAt: expiresAt,
		User:      dto.ToUserResponse(user),
	})
}

// refresh godoc
// @Summary Refresh the access token
// @Description Validates the refresh cookie, rotates the refresh token, and returns a new access token.
// @Tags auth
// @Produce  json
// @Success 200 {object} dto.RefreshTokenResponse
// @Failure 401 {object} map[string]string "Missing, invalid, or expired refresh token"
// @Failure 500 {object} map[string]string "Failed to refresh session"
// @Router /auth/refresh [post]
func (h *authHandler) refresh(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	cookie, err := c.Cookie(h.cfg.RefreshTokenCookieName)
	if err != nil || cookie == "" {
		logger.Warn("Refresh requested without refresh cookie")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing refresh token"})
		return
	}

	userID, rawToken, found := strings.Cut(cookie, refreshCookieSeparator)
	if !found || userID == "" || rawToken == "" {
		logger.Warn("Malformed refresh cookie")
		clearRefreshCookie(c, h.cfg)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	logger = logger.With(slog.String("user_id", userID))

	user, err := h.tokenService.ValidateAndParseRefreshToken(c.Request.Context(), userID, rawToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			logger.Warn("Refresh token expired")
			clearRefreshCookie(c, h.cfg)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired, sign in again"})
		case errors.Is(err, apperrors.ErrUnauthorized):
			logger.Warn("Refresh token rejected", slog.String("error", err.Error()))
			clearRefreshCookie(c, h.cfg)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		default:
			logger.Error("Failed to validate refresh token", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
		}
		return
	}

	accessToken, expiresAt, err := issueSession(c, h.cfg, h.userService, h.tokenService, user)
	if err != nil {
		logger.Error("Failed to rotate session", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
		return
	}

	logger.Info("Session refreshed successfully")
	c.JSON(http.StatusOK, dto.RefreshTokenResponse{
		Token:     accessToken,
		ExpiresAt: expiresAt,
	})
}

// logout godoc
// @Summary User logout
// @Description Clears the stored refresh token and expires the refresh cookie.
// @Tags auth
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to sign out"
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *authHandler) logout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("user_id", userID))

	if err := h.userService.ClearRefreshToken(c.Request.Context(), userID); err != nil {
		logger.Error("Failed to clear refresh token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign out"})
		return
	}

	clearRefreshCookie(c, h.cfg)
	logger.Info("User logged out successfully")
	c.Status(http.StatusNoContent)
}
