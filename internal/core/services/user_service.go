package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groupcart/groupcart_backend/internal/apperrors"
	"github.com/groupcart/groupcart_backend/internal/core/domain"
	portsrepo "github.com/groupcart/groupcart_backend/internal/core/ports/repositories"
	portssvc "github.com/groupcart/groupcart_backend/internal/core/ports/services"
	"github.com/groupcart/groupcart_backend/internal/dto"
	"github.com/groupcart/groupcart_backend/internal/utils"
)

// userService implements the UserSvcFacade interface. Registration always
// provisions the user's escrow wallet so join operations never race a
// missing wallet.
type userService struct {
	BaseService
	userRepo       portsrepo.UserRepositoryFacade
	escrow         portssvc.EscrowSvcFacade
	walletCurrency string
}

// NewUserService creates a new user service with the provided dependencies.
func NewUserService(userRepo portsrepo.UserRepositoryFacade, escrow portssvc.EscrowSvcFacade, walletCurrency string) portssvc.UserSvcFacade {
	return &userService{
		userRepo:       userRepo,
		escrow:         escrow,
		walletCurrency: walletCurrency,
	}
}

// Ensure userService implements the UserSvcFacade interface
var _ portssvc.UserSvcFacade = (*userService)(nil)

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find user", slog.String("user_id", userID))
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find user by username", slog.String("username", username))
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.ListUsers(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUser registers a new local user and provisions their escrow wallet.
func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error) {
	if _, err := s.userRepo.FindUserByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username %s already taken: %w", req.Username, apperrors.ErrDuplicate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.User{
		UserID:        uuid.NewString(),
		Username:      req.Username,
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  passwordHash,
		AuthProvider:  domain.ProviderLocal,
		EmailVerified: false,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "self-registration",
			LastUpdatedAt: now,
			LastUpdatedBy: "self-registration",
			Version:       1,
		},
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save user", slog.String("username", req.Username))
		}
		return nil, err
	}

	if err := s.provisionWallet(ctx, user.UserID); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "User registered",
		slog.String("user_id", user.UserID),
		slog.String("username", user.Username))
	return &user, nil
}

// provisionWallet creates the user's escrow wallet in the platform currency.
func (s *userService) provisionWallet(ctx context.Context, userID string) error {
	wallet, err := s.escrow.CreateWallet(ctx, userID, s.walletCurrency, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// A wallet already exists for this actor, nothing to provision.
			return nil
		}
		s.LogError(ctx, err, "Failed to provision wallet for new user", slog.String("user_id", userID))
		return fmt.Errorf("user %s created but wallet provisioning failed: %w", userID, err)
	}
	s.LogInfo(ctx, "Wallet provisioned for new user",
		slog.String("user_id", userID),
		slog.String("wallet_id", wallet.WalletID))
	return nil
}

// UpdateUser updates the mutable profile fields of a user. An update that
// changes nothing is a no-op that skips the write entirely.
func (s *userService) UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, requestingUserID string) (*domain.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Name != nil && *req.Name != user.Name {
		user.Name = *req.Name
		changed = true
	}
	if !changed {
		return user, nil
	}

	user.LastUpdatedAt = time.Now()
	user.LastUpdatedBy = requestingUserID
	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogError(ctx, err, "Failed to update user", slog.String("user_id", userID))
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateRefreshToken(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime time.Time) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, refreshTokenHash, refreshTokenExpiryTime); err != nil {
		s.LogError(ctx, err, "Failed to update refresh token", slog.String("user_id", userID))
		return err
	}
	return nil
}

func (s *userService) ClearRefreshToken(ctx context.Context, userID string) error {
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		s.LogError(ctx, err, "Failed to clear refresh token", slog.String("user_id", userID))
		return err
	}
	return nil
}

// DeleteUser marks a user as deleted (soft delete).
func (s *userService) DeleteUser(ctx context.Context, userID string, requestingUserID string) error {
	if err := s.userRepo.MarkUserDeleted(ctx, userID, requestingUserID, time.Now()); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to delete user", slog.String("user_id", userID))
		}
		return err
	}
	s.LogInfo(ctx, "User deleted",
		slog.String("user_id", userID),
		slog.String("deleted_by", requestingUserID))
	return nil
}

// AuthenticateUser verifies username/password credentials. Every failure
// mode collapses into ErrUnauthorized so responses never reveal whether the
// username exists.
func (s *userService) AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
		}
		s.LogError(ctx, err, "Failed to look up user for authentication", slog.String("username", username))
		return nil, err
	}
	if user.AuthProvider != domain.ProviderLocal || user.PasswordHash == "" {
		return nil, fmt.Errorf("account uses external sign-in: %w", apperrors.ErrUnauthorized)
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrUnauthorized)
	}
	return user, nil
}

// FindOrCreateUserByGoogleDetails finds a user by their Google subject id,
// creating the account and wallet on first login.
func (s *userService) FindOrCreateUserByGoogleDetails(ctx context.Context, info domain.GoogleUserInfo) (*domain.User, error) {
	user, err := s.userRepo.FindUserByProviderID(ctx, domain.ProviderGoogle, info.ID)
	if err == nil {
		// Sync the verified flag when Google reports a change.
		if info.VerifiedEmail && !user.EmailVerified {
			user.EmailVerified = true
			user.LastUpdatedAt = time.Now()
			user.LastUpdatedBy = user.UserID
			if uerr := s.userRepo.UpdateUser(ctx, *user); uerr != nil {
				s.LogWarn(ctx, "Failed to sync email verification from Google",
					slog.String("user_id", user.UserID),
					slog.String("error", uerr.Error()))
			}
		}
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up user by Google details")
		return nil, err
	}

	username, err := s.deriveUsername(ctx, info.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	newUser := domain.User{
		UserID:         uuid.NewString(),
		Username:       username,
		Name:           info.Name,
		Email:          info.Email,
		AuthProvider:   domain.ProviderGoogle,
		ProviderUserID: info.ID,
		EmailVerified:  info.VerifiedEmail,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "google-oauth",
			LastUpdatedAt: now,
			LastUpdatedBy: "google-oauth",
			Version:       1,
		},
	}

	if err := s.userRepo.SaveUser(ctx, newUser); err != nil {
		s.LogError(ctx, err, "Failed to save Google user", slog.String("provider_user_id", info.ID))
		return nil, err
	}
	if err := s.provisionWallet(ctx, newUser.UserID); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "User registered via Google",
		slog.String("user_id", newUser.UserID),
		slog.String("username", newUser.Username))
	return &newUser, nil
}

// deriveUsername builds a username from the email local part, suffixing a
// short random fragment when the plain form is taken.
func (s *userService) deriveUsername(ctx context.Context, email string) (string, error) {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	if base == "" {
		base = "user"
	}

	if _, err := s.userRepo.FindUserByUsername(ctx, base); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return base, nil
		}
		return "", err
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}
