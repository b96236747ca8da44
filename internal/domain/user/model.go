package user

import "time"

// Role grants a user a level of access.
type Role string

const (
	RoleInvigilator Role = "invigilator"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleInvigilator, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// User is an operator account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Credentials pairs a created user with its one-time-visible API token.
type Credentials struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
