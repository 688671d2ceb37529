package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// PropertyShare grants a non-owner user access to a property. At most one
// row exists per (property, user); re-sharing replaces the role.
type PropertyShare struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID uuid.UUID       `gorm:"column:property_id;type:uuid;not null;uniqueIndex:idx_property_shares_property_user"`
	UserID     uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_property_shares_property_user"`
	Role       enums.ShareRole `gorm:"column:role;type:share_role;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
