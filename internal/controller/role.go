package controller

// Role is the permanent job a controller was created with.
type Role int

const (
	RolePrimary Role = iota + 1
	RoleReserve
)

// String returns the string representation of the role
func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleReserve:
		return "reserve"
	default:
		return "unknown"
	}
}
