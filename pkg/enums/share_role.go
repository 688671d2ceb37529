package enums

import "fmt"

// ShareRole is the access level granted to a sharee on a property.
type ShareRole string

const (
	ShareRoleCollaborator ShareRole = "collaborator"
	ShareRoleViewer       ShareRole = "viewer"
)

var validShareRoles = []ShareRole{
	ShareRoleCollaborator,
	ShareRoleViewer,
}

// String implements fmt.Stringer.
func (s ShareRole) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShareRole.
func (s ShareRole) IsValid() bool {
	for _, candidate := range validShareRoles {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShareRole converts raw input into a ShareRole.
func ParseShareRole(value string) (ShareRole, error) {
	for _, candidate := range validShareRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid share role %q", value)
}

// PermissionRole is the resolved relationship between a user and a property.
// Unlike ShareRole it includes the owner and the no-relation case.
type PermissionRole string

const (
	PermissionRoleOwner        PermissionRole = "owner"
	PermissionRoleCollaborator PermissionRole = "collaborator"
	PermissionRoleViewer       PermissionRole = "viewer"
	PermissionRoleNone         PermissionRole = "none"
)

// String implements fmt.Stringer.
func (p PermissionRole) String() string {
	return string(p)
}
