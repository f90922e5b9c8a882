package auth

import (
	"github.com/labstock/labstock-backend/internal/profiles"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and profile produced by a successful login.
type LoginResponse struct {
	AccessToken string               `json:"access_token"`
	Profile     *profiles.ProfileDTO `json:"profile"`
}

// RegisterRequest captures the fields an admin supplies to provision a profile.
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=64"`
	ExternalID string `json:"external_id" validate:"required"`
	Password   string `json:"password" validate:"omitempty,min=12"`
	Role       string `json:"role" validate:"omitempty,oneof=team admin"`
}

// RegisterResponse returns the created profile and, when the password was
// generated server-side, the temporary password to hand to the user.
type RegisterResponse struct {
	Profile      *profiles.ProfileDTO `json:"profile"`
	TempPassword *string              `json:"temp_password,omitempty"`
}
