// Package identities implements the identity domain for Countersign.
// It provides types, data access, and business logic for the accounts that
// participate in approval workflows: administrators, internal reviewers,
// and external reviewers with standing accounts.
package identities

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// Role classifies what an identity may do within an approval workflow.
// Roles serialize as their ordinal value on the wire.
type Role int

const (
	RoleAdmin    Role = 1
	RoleInternal Role = 2
	RoleExternal Role = 3
)

// String returns the role name for logging and error messages.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleInternal:
		return "Internal"
	case RoleExternal:
		return "External"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInternal, RoleExternal:
		return true
	default:
		return false
	}
}

// Identity represents an account that can act on workflows.
type Identity struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// CreateCommand carries the data needed to register a new identity.
type CreateCommand struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// HashPassword returns the stable one-way hash used for stored passwords:
// base64(SHA-256(password)). The algorithm must not change without a
// migration path for existing rows.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}
