package properties

import (
	"time"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// PropertyDTO is the transport shape for a property record.
type PropertyDTO struct {
	ID             uuid.UUID            `json:"id"`
	OwnerID        uuid.UUID            `json:"owner_id"`
	Address        string               `json:"address"`
	Type           enums.PropertyType   `json:"type"`
	Notes          *string              `json:"notes,omitempty"`
	PhotoURL       *string              `json:"photo_url,omitempty"`
	Status         enums.PropertyStatus `json:"status"`
	HistoryVisible bool                 `json:"history_visible"`
	SharedWith     []ShareDTO           `json:"shared_with"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ShareDTO is one entry of a property's shared-access list.
type ShareDTO struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.ShareRole `json:"role"`
}

// CreatePropertyInput captures the data needed to register a property.
type CreatePropertyInput struct {
	Address        string
	Type           enums.PropertyType
	Notes          *string
	PhotoURL       *string
	HistoryVisible *bool
}

// UpdatePropertyInput captures the allowed property fields for mutation.
// OwnerID is accepted so callers can submit full records, but it is dropped:
// ownership never changes after creation.
type UpdatePropertyInput struct {
	OwnerID        *uuid.UUID
	Address        *string
	Type           *enums.PropertyType
	Notes          *string
	PhotoURL       *string
	Status         *enums.PropertyStatus
	HistoryVisible *bool
}

// FromModel converts the stored record plus its shares into a DTO.
func FromModel(property *models.Property, shares []models.PropertyShare) *PropertyDTO {
	if property == nil {
		return nil
	}

	shared := make([]ShareDTO, 0, len(shares))
	for _, share := range shares {
		shared = append(shared, ShareDTO{UserID: share.UserID, Role: share.Role})
	}

	return &PropertyDTO{
		ID:             property.ID,
		OwnerID:        property.OwnerID,
		Address:        property.Address,
		Type:           property.Type,
		Notes:          property.Notes,
		PhotoURL:       property.PhotoURL,
		Status:         property.Status,
		HistoryVisible: property.HistoryVisible,
		SharedWith:     shared,
		CreatedAt:      property.CreatedAt,
		UpdatedAt:      property.UpdatedAt,
	}
}
