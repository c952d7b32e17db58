package services

import (
	"context"
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

// TokenSvcFacade mints and validates the two session credentials: short-lived
// JWT access tokens and long-lived opaque refresh tokens.
type TokenSvcFacade interface {
	// GenerateAccessToken mints a signed JWT for the user and returns it with
	// its expiry instant.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// GenerateRefreshToken mints a raw opaque refresh token and its expiry.
	// Callers persist only the token's hash; the raw value goes to the client.
	GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// ValidateAndParseRefreshToken checks a presented raw refresh token
	// against the user's stored hash and expiry, returning the user on a
	// match. Expired tokens fail with apperrors.ErrRefreshTokenExpired,
	// everything else with apperrors.ErrUnauthorized.
	ValidateAndParseRefreshToken(ctx context.Context, userID string, refreshTokenString string) (*domain.User, error)
}

// GoogleOAuthHandlerSvcFacade covers the server side of the Google sign-in
// code exchange.
type GoogleOAuthHandlerSvcFacade interface {
	// ExchangeCodeForToken swaps the authorization code the frontend obtained
	// for Google's token response.
	ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error)

	// ValidateGoogleIDToken verifies the ID token's signature and audience
	// and returns its claims payload.
	ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*idtoken.Payload, error)
}
