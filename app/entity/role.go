package entity

import "fmt"

// Role is the permission level a user holds on one project. The set is
// closed; anything else is rejected at the boundary.
type Role string

const (
	// RoleAdmin may mutate the project and its membership.
	RoleAdmin Role = "admin"
	// RoleMember may work inside the project but not administer it.
	RoleMember Role = "member"
	// RoleViewer has read-only access.
	RoleViewer Role = "viewer"
)

// AllRoles lists every valid role, lowest privilege last.
var AllRoles = []Role{RoleAdmin, RoleMember, RoleViewer}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole validates a wire-level role string against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}
