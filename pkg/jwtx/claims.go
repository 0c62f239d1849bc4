package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims are the access-token claims shared by the issuer and every
// resource server that verifies tokens out of process.
type Claims struct {
	jwt.RegisteredClaims

	// SID is the refresh chain the token was minted from. Revoking the
	// chain also makes introspection of its access tokens report inactive.
	SID string `json:"sid,omitempty"`

	// ClientID is the client the token was issued to (RFC 9068). Only that
	// client may revoke it.
	ClientID string `json:"client_id,omitempty"`

	// Role of the subject, e.g. "player" or "admin".
	Role string `json:"role,omitempty"`

	// Username for the authenticated subject.
	Username string `json:"username,omitempty"`
}

// AccessClaimsParams groups the inputs of NewAccessClaims.
type AccessClaimsParams struct {
	Subject  string
	SID      string
	ClientID string
	Role     string
	Username string
	Issuer   string
	Audience []string
	TTL      time.Duration
	Now      time.Time
}

// NewAccessClaims builds claims with exp fixed at Now+TTL and a fresh jti.
func NewAccessClaims(p AccessClaimsParams) Claims {
	now := p.Now.UTC().Truncate(time.Second)
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings(p.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL)),
			ID:        NewJTI(),
		},
		SID:      p.SID,
		ClientID: p.ClientID,
		Role:     p.Role,
		Username: p.Username,
	}
}

// NewJTI returns a random UUIDv4 for the "jti" claim.
func NewJTI() string {
	return uuid.NewString()
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}
