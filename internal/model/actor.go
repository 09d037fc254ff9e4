package model

import "github.com/google/uuid"

// Role is the discriminator for role-scoped queries.
type Role string

const (
	RolePatient      Role = "patient"
	RolePractitioner Role = "practitioner"
	RoleAdmin        Role = "admin"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RolePractitioner || r == RoleAdmin
}

// Actor is the current user as reported by the identity provider. Queries
// take it as an explicit parameter; the engine never reads ambient state.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}
