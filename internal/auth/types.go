package auth

import "errors"

// Role represents an authorisation tier.
type Role string

const (
	// RoleViewer can only read.
	RoleViewer Role = "viewer"

	// RoleOperator can play and stop patterns.
	RoleOperator Role = "operator"

	// RoleAdmin can also change the user pattern catalog.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of assignable roles.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if r is one of ValidRoles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Authentication errors. Use errors.Is() to check.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
	ErrNoSecret     = errors.New("token secret is not configured")
	ErrEmptySubject = errors.New("token subject is required")
	ErrForbidden    = errors.New("insufficient permissions")
)
