package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// Property is a registered home/building tracked by its owner. The owner id
// is set at creation and never changes; shared access lives in
// PropertyShare rows.
type Property struct {
	ID             uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID            `gorm:"column:owner_id;type:uuid;not null"`
	Address        string               `gorm:"column:address;not null"`
	Type           enums.PropertyType   `gorm:"column:type;type:property_type;not null"`
	Notes          *string              `gorm:"column:notes"`
	PhotoURL       *string              `gorm:"column:photo_url"`
	Status         enums.PropertyStatus `gorm:"column:status;type:property_status;not null;default:'active'"`
	HistoryVisible bool                 `gorm:"column:history_visible;not null;default:true"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
