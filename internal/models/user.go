package models

import (
	"database/sql"
	"time"
)

// User represents a registered actor (buyer or seller).
type User struct {
	UserID         string         `db:"user_id"`
	Username       string         `db:"username"`
	Name           string         `db:"name"`
	Email          string         `db:"email"`
	PasswordHash   string         `db:"password_hash"` // Empty for OAuth-only users
	AuthProvider   string         `db:"auth_provider"`
	ProviderUserID sql.NullString `db:"provider_user_id"` // Provider's subject id
	EmailVerified  bool           `db:"email_verified"`
	AuditFields
	DeletedAt *time.Time `db:"deleted_at"`

	// Refresh token fields; only the SHA-256 hash of the token is stored.
	RefreshTokenHash       sql.NullString `db:"refresh_token_hash"`
	RefreshTokenExpiryTime sql.NullTime   `db:"refresh_token_expiry_time"`
}
