package domain

import "time"

// Revocation kinds.
const (
	RevocationAccess  = "access"  // a single access token by jti or derived id
	RevocationChain   = "chain"   // a refresh chain
	RevocationSubject = "subject" // every token of a subject issued before RevokedAt
)

// Revocation is an append-only record that makes a token identifier
// invalid regardless of its cryptographic validity.
type Revocation struct {
	ID        string
	Kind      string
	Subject   string
	Reason    string
	RevokedAt time.Time
	ExpiresAt time.Time // after this the revoked token cannot be valid anyway
}
