package domain

import "strings"

// Role names as issued by the identity service.
type Role string

const (
	RoleSystemAdmin Role = "system_admin"
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleAccountant  Role = "accountant"
)

// NormalizeRole lowercases and trims a role string coming off the wire.
func NormalizeRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Identity is the authenticated operator, as returned by GET /users/me.
// BranchID 0 means the operator is not bound to a single branch.
type Identity struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	BranchID int    `json:"branch_id"`
}

// Valid reports whether the identity carries everything a session needs.
func (i Identity) Valid() bool {
	return i.ID > 0 && strings.TrimSpace(i.Email) != "" && strings.TrimSpace(string(i.Role)) != ""
}

// User is an account managed through the identity service's admin endpoints.
type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	BranchID int    `json:"branch_id"`
}

// UserInput carries a create (ID == 0) or a partial update (ID > 0).
// Empty fields are left out of an update payload.
type UserInput struct {
	ID       int
	Email    string
	Password string
	Role     Role
	BranchID *int
}

// IsUpdate reports whether the input targets an existing user.
func (u UserInput) IsUpdate() bool {
	return u.ID > 0
}
