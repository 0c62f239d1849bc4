package authsdk

import (
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// ErrorResponse is the OAuth2 error body (RFC 6749 section 5.2).
// Client code sees it as an *OAuth2Error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is returned from POST /v1/oauth2/token for both the password
// and the refresh_token grant.
type TokenResponse struct {
	// AccessToken is the signed JWT.
	AccessToken string `json:"access_token"`

	// RefreshToken is opaque and single use.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// IntrospectionResponse is the RFC 7662 introspection result. Inactive
// tokens carry only Active=false.
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	Sub       string `json:"sub,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	TokenType string `json:"token_type,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency, "ok" or an error.
type HealthChecks struct {
	Database    string `json:"database"`
	Signer      string `json:"signer"`
	Revocations string `json:"revocations"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse is the document served at /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS

// ============================================================================
// Admin Types
// ============================================================================

// SigningKeyInfo describes a key that currently verifies tokens.
type SigningKeyInfo struct {
	Kid         string     `json:"kid"`
	Algorithm   string     `json:"alg"`
	State       string     `json:"state"` // active or retired
	CreatedAt   time.Time  `json:"created_at"`
	VerifyUntil *time.Time `json:"verify_until,omitempty"`
}

// ListKeysResponse is returned by GET /v1/keys.
type ListKeysResponse struct {
	Keys []SigningKeyInfo `json:"keys"`
}

// RevokeSubjectRequest is the body of POST /v1/subjects/{sub}/revoke.
type RevokeSubjectRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RevokeSubjectResponse reports how many refresh chains were revoked.
type RevokeSubjectResponse struct {
	Subject       string `json:"sub"`
	ChainsRevoked int    `json:"chains_revoked"`
}

// SubjectChainsResponse is returned by GET /v1/subjects/{sub}/chains.
type SubjectChainsResponse struct {
	Subject string   `json:"sub"`
	Chains  []string `json:"chains"`
}

// CleanupResponse counts the rows removed by POST /v1/admin/cleanup.
type CleanupResponse struct {
	RefreshTokens int64 `json:"refresh_tokens"`
	Revocations   int64 `json:"revocations"`
	SigningKeys   int64 `json:"signing_keys"`
	Failures      int   `json:"failures"`
}

// StatsResponse is returned by GET /v1/admin/stats.
type StatsResponse struct {
	ActiveRefreshTokens int64          `json:"active_refresh_tokens"`
	ActiveChains        int64          `json:"active_chains"`
	RevokedChains       int64          `json:"revoked_chains"`
	Revocations         int64          `json:"revocations"`
	Identities          int64          `json:"identities"`
	Keys                map[string]int `json:"keys"`
}
