package services

import (
	"context"
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
	"github.com/groupcart/groupcart_backend/internal/dto"
)

// UserReaderSvc defines read operations for user accounts.
type UserReaderSvc interface {
	// GetUserByID retrieves a user by ID. Soft-deleted users are not found.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// GetUserByUsername retrieves a user by their unique username.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// ListUsers retrieves users with limit/offset pagination.
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
}

// UserWriterSvc defines write operations for user accounts.
type UserWriterSvc interface {
	// CreateUser registers a local-credential user and provisions their
	// escrow wallet in the configured currency. A taken username fails with
	// apperrors.ErrDuplicate.
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error)

	// UpdateUser applies profile changes on behalf of requestingUserID.
	UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error)

	// UpdateRefreshToken stores the hash and expiry of a freshly rotated
	// refresh token.
	UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error

	// ClearRefreshToken drops the stored refresh token, ending the session
	// on every device holding the old cookie.
	ClearRefreshToken(ctx context.Context, userID string) error
}

// UserLifecycleSvc defines account lifecycle operations.
type UserLifecycleSvc interface {
	// DeleteUser soft-deletes the account. The wallet and its ledger trail
	// remain for audit.
	DeleteUser(ctx context.Context, userID string, requestingUserID string) error
}

// UserAuthSvc defines the credential checks behind the auth endpoints.
type UserAuthSvc interface {
	// AuthenticateUser verifies a username/password pair. All failure modes
	// collapse into apperrors.ErrUnauthorized so callers cannot probe which
	// usernames exist.
	AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error)

	// FindOrCreateUserByGoogleDetails resolves a Google sign-in to a local
	// account, registering the user (and wallet) on first login.
	FindOrCreateUserByGoogleDetails(ctx context.Context, info domain.GoogleUserInfo) (*domain.User, error)
}

// UserSvcFacade combines all user-related service interfaces.
type UserSvcFacade interface {
	UserReaderSvc
	UserWriterSvc
	UserLifecycleSvc
	UserAuthSvc
}
