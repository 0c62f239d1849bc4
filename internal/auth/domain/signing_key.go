package domain

import "time"

// Signing key states.
const (
	KeyStateActive  = "active"
	KeyStateRetired = "retired"
	KeyStateRevoked = "revoked"
)

// SigningKey is a JWT signing key as stored in the database. The private key
// is encrypted at rest; retired keys keep verifying until VerifyUntil.
type SigningKey struct {
	Kid                 string // e.g. "tg-3q2Xb..."
	Algorithm           string // EdDSA, ES256 or RS256
	State               string
	PrivateKeyEncrypted []byte // AES-256-GCM sealed PKCS8 PEM
	CreatedAt           time.Time
	RetiredAt           *time.Time
	VerifyUntil         *time.Time
	RevokedAt           *time.Time
}

// Verifies reports whether tokens signed with the key are accepted at now.
func (k SigningKey) Verifies(now time.Time) bool {
	switch k.State {
	case KeyStateActive:
		return true
	case KeyStateRetired:
		return k.VerifyUntil != nil && now.Before(*k.VerifyUntil)
	}
	return false
}
