package domain

import "time"

// Role enumerates session roles recognized by the view engine.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleSupervisor    Role = "supervisor"
	RoleFieldEngineer Role = "field_engineer"
)

// Elevated reports whether the role sees the full ticket collection.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

// UserProfile is a read-only projection of a user, used for display-name
// resolution and role-scoped filtering input.
type UserProfile struct {
	ID         string
	FullName   string
	Email      string
	Role       Role
	Department string
	IsActive   bool
	CreatedAt  time.Time
}
