package models

// Role is the coarse permission level of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Capability names an action that is granted by role rather than by ownership.
type Capability string

const (
	// CapManageCategories allows creating, updating and deleting categories.
	CapManageCategories Capability = "manage_categories"
	// CapModerateContent allows deleting boards and comments owned by other users.
	CapModerateContent Capability = "moderate_content"
)

// RoleCapabilities is the single source of truth for role based permissions.
var RoleCapabilities = map[Role][]Capability{
	RoleUser:      {},
	RoleModerator: {CapModerateContent},
	RoleAdmin:     {CapManageCategories, CapModerateContent},
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range RoleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := RoleCapabilities[r]
	return ok
}
