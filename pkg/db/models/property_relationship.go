package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyRelationship is a per-user label override for a property, e.g.
// "Mom's House". One row per (user, property).
type PropertyRelationship struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_relationships_user_property"`
	PropertyID uuid.UUID `gorm:"column:property_id;type:uuid;not null;uniqueIndex:idx_relationships_user_property"`
	Label      string    `gorm:"column:label;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
