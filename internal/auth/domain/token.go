package domain

import "time"

// TokenTypeBearer is the only token_type issued.
const TokenTypeBearer = "Bearer"

// TokenPair represents what the token endpoint returns: the short-lived
// access token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	ChainID      string // not serialised, used for logging
}

// RefreshToken is a stored refresh token. Tokens form chains: each
// successful refresh consumes generation n and inserts n+1 under the same
// ChainID. Only the SHA-256 fingerprint of the opaque value is kept.
type RefreshToken struct {
	ID             string
	TokenHash      string
	ChainID        string
	Generation     int
	Subject        string
	ClientID       string
	IssuedAt       time.Time
	ExpiresAt      time.Time
	ChainExpiresAt time.Time // absolute lifetime of the chain
	ConsumedAt     *time.Time
	Revoked        bool
	RevokedAt      *time.Time
	RevokedReason  string
}

// Usable reports whether the token can still be exchanged at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.ConsumedAt == nil && !t.Revoked && now.Before(t.ExpiresAt)
}

// RefreshStats summarises the registry for the admin status endpoint.
type RefreshStats struct {
	ActiveTokens  int64
	ActiveChains  int64
	RevokedChains int64
}
