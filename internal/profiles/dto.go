package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/pkg/db/models"
	"github.com/labstock/labstock-backend/pkg/enums"
)

// CreateProfileDTO captures the fields needed to provision a profile.
type CreateProfileDTO struct {
	ExternalID   string
	Username     string
	PasswordHash string
	Role         enums.ProfileRole
}

// ToModel maps the DTO onto a fresh Profile model.
func (dto CreateProfileDTO) ToModel() *models.Profile {
	role := dto.Role
	if role == "" {
		role = enums.ProfileRoleTeam
	}
	return &models.Profile{
		ExternalID:   dto.ExternalID,
		Username:     dto.Username,
		PasswordHash: dto.PasswordHash,
		Role:         role,
		IsActive:     true,
	}
}

// ProfileDTO is the outward-facing shape of a profile. The password hash
// never leaves the service layer.
type ProfileDTO struct {
	ID          uuid.UUID         `json:"id"`
	ExternalID  string            `json:"external_id"`
	Username    string            `json:"username"`
	Role        enums.ProfileRole `json:"role"`
	IsActive    bool              `json:"is_active"`
	LastLoginAt *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// FromModel maps a persisted profile to its DTO.
func FromModel(profile *models.Profile) *ProfileDTO {
	if profile == nil {
		return nil
	}
	return &ProfileDTO{
		ID:          profile.ID,
		ExternalID:  profile.ExternalID,
		Username:    profile.Username,
		Role:        profile.Role,
		IsActive:    profile.IsActive,
		LastLoginAt: profile.LastLoginAt,
		CreatedAt:   profile.CreatedAt,
	}
}
