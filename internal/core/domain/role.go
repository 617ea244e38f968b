package domain

// Role is the privilege level attached to an identity.
type Role string

const (
	RoleUnset    Role = ""
	RoleUser     Role = "user"
	RoleMechanic Role = "mechanic"
	RoleAdmin    Role = "admin"
)

// DefaultRole is assigned when registration does not request one.
const DefaultRole = RoleUser

// ParseRole accepts the unset sentinel and every defined role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if r != RoleUnset && !r.Valid() {
		return RoleUnset, ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is a defined, assignable role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleMechanic, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
