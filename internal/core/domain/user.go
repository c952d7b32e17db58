package domain

import "time"

// AuthProvider names the identity provider a user signed up with.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
)

// User represents an authenticated actor (buyer or seller). Every user gets
// a wallet provisioned at registration.
type User struct {
	UserID                 string       `json:"userID"` // Primary Key (UUID)
	Username               string       `json:"username"`
	Name                   string       `json:"name"`
	Email                  string       `json:"email"`
	PasswordHash           string       `json:"-"` // Empty for OAuth-only users
	AuthProvider           AuthProvider `json:"authProvider"`
	ProviderUserID         string       `json:"-"` // Provider's subject id, e.g. Google "sub"
	EmailVerified          bool         `json:"emailVerified"`
	RefreshTokenHash       string       `json:"-"`
	RefreshTokenExpiryTime *time.Time   `json:"-"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Soft delete
}

// GoogleUserInfo mirrors the fields of Google's userinfo endpoint that the
// sign-in flow consumes.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}
