package dto

import (
	"time"

	"github.com/groupcart/groupcart_backend/internal/core/domain"
)

// UserResponse is the public view of a user. Credential material never
// leaves the service layer.
type UserResponse struct {
	UserID        string    `json:"userID"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	AuthProvider  string    `json:"authProvider"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ToUserResponse converts a domain.User to its API representation.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:        user.UserID,
		Username:      user.Username,
		Name:          user.Name,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		AuthProvider:  string(user.AuthProvider),
		CreatedAt:     user.CreatedAt,
	}
}
