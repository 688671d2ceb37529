package properties

import (
	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// Permissions is a user's resolved capability set for one property.
type Permissions struct {
	CanView   bool                 `json:"can_view"`
	CanEdit   bool                 `json:"can_edit"`
	CanDelete bool                 `json:"can_delete"`
	CanShare  bool                 `json:"can_share"`
	Role      enums.PermissionRole `json:"role"`
}

// NoPermissions is the shape returned when the property does not exist or
// the user holds no relation to it. Resolution never reports not-found so
// record existence does not leak to unrelated users.
func NoPermissions() Permissions {
	return Permissions{Role: enums.PermissionRoleNone}
}

// resolvePermissions computes the capability set from the record and its
// share list. First match wins: owner, then collaborator share, then viewer
// share, then none.
func resolvePermissions(property *models.Property, shares []models.PropertyShare, userID uuid.UUID) Permissions {
	if property == nil {
		return NoPermissions()
	}

	if property.OwnerID == userID {
		return Permissions{
			CanView:   true,
			CanEdit:   true,
			CanDelete: true,
			CanShare:  true,
			Role:      enums.PermissionRoleOwner,
		}
	}

	for _, share := range shares {
		if share.UserID != userID {
			continue
		}
		switch share.Role {
		case enums.ShareRoleCollaborator:
			return Permissions{
				CanView: true,
				CanEdit: true,
				Role:    enums.PermissionRoleCollaborator,
			}
		case enums.ShareRoleViewer:
			return Permissions{
				CanView: true,
				Role:    enums.PermissionRoleViewer,
			}
		}
	}

	return NoPermissions()
}
