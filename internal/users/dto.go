package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	dbtypes "github.com/jordanmarch/upkeep-backend/pkg/db/types"
)

// UserDTO is the transport shape for a user profile.
type UserDTO struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	AvatarURL   *string     `json:"avatar_url,omitempty"`
	SystemRole  *string     `json:"system_role,omitempty"`
	Timezone    string      `json:"timezone"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	PropertyIDs []uuid.UUID `json:"property_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RelationshipDTO is one per-user property label.
type RelationshipDTO struct {
	PropertyID uuid.UUID `json:"property_id"`
	Label      string    `json:"label"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   *string
	Timezone    *string
	PropertyIDs []uuid.UUID
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		SystemRole:  u.SystemRole,
		Timezone:    u.Timezone,
		LastLoginAt: u.LastLoginAt,
		PropertyIDs: append([]uuid.UUID(nil), []uuid.UUID(u.PropertyIDs)...),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func RelationshipFromModel(rel *models.PropertyRelationship) *RelationshipDTO {
	if rel == nil {
		return nil
	}
	return &RelationshipDTO{PropertyID: rel.PropertyID, Label: rel.Label}
}

func (c CreateUserDTO) ToModel() *models.User {
	timezone := "UTC"
	if c.Timezone != nil && *c.Timezone != "" {
		timezone = *c.Timezone
	}

	propertyIDs := c.PropertyIDs
	if propertyIDs == nil {
		propertyIDs = []uuid.UUID{}
	} else {
		propertyIDs = append([]uuid.UUID(nil), propertyIDs...)
	}

	return &models.User{
		ProviderID:  c.ProviderID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		AvatarURL:   c.AvatarURL,
		Timezone:    timezone,
		PropertyIDs: dbtypes.UUIDArray(propertyIDs),
	}
}
