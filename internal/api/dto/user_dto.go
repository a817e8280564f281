package dto

import (
	"time"

	"github.com/spec-kit/sales-assistant/internal/domain"
)

// CredentialsRequest is the register and login payload. Login also accepts it form encoded.
type CredentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// RegisterResponse acknowledges a registration awaiting approval.
type RegisterResponse struct {
	Status string `json:"status"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID         string            `json:"id"`
	Username   string            `json:"username"`
	Role       domain.Role       `json:"role"`
	Status     domain.UserStatus `json:"status"`
	ApprovedAt *time.Time        `json:"approved_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewUserResponse projects a user without its password hash.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Role:       u.Role,
		Status:     u.Status,
		ApprovedAt: u.ApprovedAt,
		CreatedAt:  u.CreatedAt,
	}
}
