package domain

import "fmt"

// Role is the access level assigned to a user account.
type Role string

// Role values define the allowed user roles.
const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole converts a stored role string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleModerator:
		return RoleModerator, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the role as its stored string form.
func (r Role) String() string {
	return string(r)
}
