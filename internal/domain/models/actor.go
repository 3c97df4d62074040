package models

// Role is the authorization role supplied by the auth collaborator
type Role string

const (
	RoleUser   Role = "user"
	RoleExpert Role = "expert"
	RoleAdmin  Role = "admin"
)

// Actor is an already-authenticated caller
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

// CanVerify reports whether the actor holds the expert/admin capability
func (a Actor) CanVerify() bool {
	return a.Role == RoleExpert || a.Role == RoleAdmin
}
