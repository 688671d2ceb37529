package tasks

import (
	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// Permissions is a user's resolved capability set for tasks on one property.
// Semantics differ from the registry's: viewer is strictly read-only, while
// owner and collaborator hold every task capability.
type Permissions struct {
	CanView   bool                 `json:"can_view"`
	CanCreate bool                 `json:"can_create"`
	CanEdit   bool                 `json:"can_edit"`
	CanDelete bool                 `json:"can_delete"`
	Role      enums.PermissionRole `json:"role"`
}

// NoPermissions is the shape returned when the parent property does not
// exist or the user holds no relation to it.
func NoPermissions() Permissions {
	return Permissions{Role: enums.PermissionRoleNone}
}

// fromPropertyPermissions maps registry permissions onto task capabilities.
func fromPropertyPermissions(perms properties.Permissions) Permissions {
	switch perms.Role {
	case enums.PermissionRoleOwner, enums.PermissionRoleCollaborator:
		return Permissions{
			CanView:   true,
			CanCreate: true,
			CanEdit:   true,
			CanDelete: true,
			Role:      perms.Role,
		}
	case enums.PermissionRoleViewer:
		return Permissions{CanView: true, Role: perms.Role}
	default:
		return NoPermissions()
	}
}
