package dto

import (
	"time"

	"github.com/noah-isme/sao-registrar-api/internal/models"
)

// LoginRequest carries account credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates an account. Missing permissions default to the
// read-mostly faculty set.
type RegisterRequest struct {
	Name        string              `json:"name" validate:"required,max=255"`
	Email       string              `json:"email" validate:"required,email,max=255"`
	Password    string              `json:"password" validate:"required,min=8,max=72"`
	Permissions *models.Permissions `json:"permissions"`
}

// LogoutRequest optionally reports how long the session lasted.
type LogoutRequest struct {
	SessionStart *time.Time `json:"sessionStart"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Role        string             `json:"role"`
	Permissions models.Permissions `json:"permissions"`
}

// NewUserResponse maps an account without its password hash.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.DisplayRole(),
		Permissions: user.Permissions.Data(),
	}
}

// LoginResponse returns the bearer token and the signed-in account.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}
