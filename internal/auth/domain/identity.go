package domain

import "time"

// Roles carried in the "role" claim.
const (
	RolePlayer  = "player"
	RoleService = "service"
	RoleAdmin   = "admin"
)

// Identity is a subject that can authenticate with a password. The token
// core only reads identities; they are created by an operator or the
// bootstrap seed.
type Identity struct {
	ID           string // ULID, the "sub" claim
	Username     string
	Role         string
	PasswordHash string // PHC argon2id string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the identity may call the admin endpoints.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
