package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/jordanmarch/upkeep-backend/pkg/db/types"
)

// User represents the canonical identity entity. Rows are created lazily on
// first sign-in from the identity provider's profile and never hard-deleted.
type User struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProviderID  string            `gorm:"column:provider_id;type:text;not null;uniqueIndex"`
	Email       string            `gorm:"type:text;not null;uniqueIndex"`
	DisplayName string            `gorm:"column:display_name;not null"`
	AvatarURL   *string           `gorm:"column:avatar_url"`
	SystemRole  *string           `gorm:"column:system_role"`
	Timezone    string            `gorm:"column:timezone;not null;default:'UTC'"`
	LastLoginAt *time.Time        `gorm:"column:last_login_at"`
	PropertyIDs dbtypes.UUIDArray `gorm:"type:uuid[];column:property_ids;not null;default:ARRAY[]::uuid[]"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
