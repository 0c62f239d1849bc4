package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// Token type hints (RFC 7662 / RFC 7009).
const (
	HintAccessToken  = "access_token"
	HintRefreshToken = "refresh_token"
)

// Introspection is the result of introspecting a token. Inactive results
// carry no other fields.
type Introspection struct {
	Active    bool   `json:"active"`
	Sub       string `json:"sub,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	TokenType string `json:"token_type,omitempty"`
}

// RevokeRequest names what to revoke: a token (access or refresh) or a
// refresh chain id.
//
// Token revocation is bound to ClientID: a token issued to another client
// is left alone. ChainID revocation is an operator action and callers must
// authorize it before building the request.
type RevokeRequest struct {
	Token     string
	TokenHint string
	ClientID  string
	ChainID   string
	Reason    string
}

// AdminStats summarises the token state for operators.
type AdminStats struct {
	Refresh     domain.RefreshStats `json:"refresh"`
	Revocations int64               `json:"revocations"`
	Identities  int64               `json:"identities"`
	Keys        map[string]int      `json:"keys"`
}

// RevocationService answers "is this token still good" and records
// revocations.
type RevocationService struct {
	Store  store.Store
	Tokens *TokenService
	List   revocation.List
	Keys   KeyProvider
	Now    func() time.Time
}

func NewRevocationService(s store.Store, tokens *TokenService, list revocation.List, keys KeyProvider) *RevocationService {
	return &RevocationService{
		Store:  s,
		Tokens: tokens,
		List:   list,
		Keys:   keys,
		Now:    tokens.Config.Now,
	}
}

// DerivedID identifies an access token independently of its jti: the
// fingerprint of the token, its kid and its iat.
func DerivedID(token, kid string, iat time.Time) string {
	return cryptox.FingerprintParts(token, kid, strconv.FormatInt(iat.Unix(), 10))
}

// Authenticate verifies an access token and checks it against the
// revocation list. Storage failures reject the token.
func (s *RevocationService) Authenticate(ctx context.Context, token string) (*jwtx.Claims, error) {
	claims, err := s.Tokens.VerifyAccess(ctx, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.isRevoked(ctx, token, claims)
	if err != nil {
		slogx.FromContext(ctx).Error("revocation lookup failed", slog.Any("error", err))
		return nil, ErrTokenInvalid
	}
	if revoked {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *RevocationService) isRevoked(ctx context.Context, token string, claims *jwtx.Claims) (bool, error) {
	kid, err := jwtx.KeyID(token)
	if err != nil {
		return true, nil
	}

	ids := []string{claims.ID, DerivedID(token, kid, claims.IssuedAt.Time)}
	if claims.SID != "" {
		ids = append(ids, claims.SID)
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		revoked, err := s.List.IsRevoked(ctx, id)
		if err != nil || revoked {
			return revoked, err
		}
	}

	at, ok, err := s.List.SubjectRevokedAt(ctx, claims.Subject)
	if err != nil {
		return false, err
	}
	// The cutoff has the one-second resolution of iat. Tokens issued earlier
	// in the cutoff second belong to chains revoked alongside the cutoff.
	return ok && claims.IssuedAt.Before(at), nil
}

// Introspect reports whether token is currently active. Any failure yields
// an inactive result.
func (s *RevocationService) Introspect(ctx context.Context, token, hint string) Introspection {
	token = strings.TrimSpace(token)
	if token == "" {
		return Introspection{}
	}

	if hint == HintRefreshToken {
		if res, ok := s.introspectRefresh(ctx, token); ok {
			return res
		}
		return s.introspectAccess(ctx, token)
	}

	res := s.introspectAccess(ctx, token)
	if !res.Active && !looksLikeJWT(token) {
		if rres, ok := s.introspectRefresh(ctx, token); ok {
			return rres
		}
	}
	return res
}

func (s *RevocationService) introspectAccess(ctx context.Context, token string) Introspection {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return Introspection{}
	}
	return Introspection{
		Active:    true,
		Sub:       claims.Subject,
		Exp:       claims.ExpiresAt.Unix(),
		Iat:       claims.IssuedAt.Unix(),
		TokenType: domain.TokenTypeBearer,
	}
}

func (s *RevocationService) introspectRefresh(ctx context.Context, token string) (Introspection, bool) {
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Error("refresh token lookup failed", slog.Any("error", err))
		}
		return Introspection{}, false
	}
	if !rt.Usable(s.Now()) {
		return Introspection{}, true
	}
	return Introspection{
		Active:    true,
		Sub:       rt.Subject,
		Exp:       rt.ExpiresAt.Unix(),
		Iat:       rt.IssuedAt.Unix(),
		TokenType: HintRefreshToken,
	}, true
}

// looksLikeJWT reports whether token has the three dot-separated segments
// of a compact JWS. Opaque refresh tokens are base64url without dots.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// Revoke revokes an access token, a refresh token (and its chain) or a
// chain id. Unknown or already invalid tokens, and tokens issued to another
// client, are a successful no-op. Revoking twice is the same as revoking
// once.
func (s *RevocationService) Revoke(ctx context.Context, req RevokeRequest) error {
	reason := req.Reason
	if reason == "" {
		reason = ReasonRevoked
	}

	if req.ChainID != "" {
		return s.revokeChain(ctx, req.ChainID, "", reason)
	}

	token := strings.TrimSpace(req.Token)
	clientID := strings.TrimSpace(req.ClientID)
	if token == "" || clientID == "" {
		return ErrInvalidRequest
	}

	if req.TokenHint != HintRefreshToken && looksLikeJWT(token) {
		return s.revokeAccess(ctx, token, clientID, reason)
	}

	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(token))
	switch {
	case errors.Is(err, store.ErrNotFound):
		if looksLikeJWT(token) {
			return s.revokeAccess(ctx, token, clientID, reason)
		}
		return nil
	case err != nil:
		return fmt.Errorf("revoke: %w", err)
	}
	if rt.ClientID != clientID {
		slogx.FromContext(ctx).Warn("refresh token revocation by wrong client ignored",
			slog.String("chain_id", rt.ChainID),
			slog.String("client_id", clientID),
		)
		return nil
	}
	return s.revokeChain(ctx, rt.ChainID, rt.Subject, reason)
}

func (s *RevocationService) revokeAccess(ctx context.Context, token, clientID, reason string) error {
	claims, err := s.Tokens.VerifyAccess(ctx, token)
	if err != nil {
		// Invalid or expired tokens need no record.
		return nil
	}
	kid, err := jwtx.KeyID(token)
	if err != nil {
		return nil
	}
	if claims.ClientID != clientID {
		slogx.FromContext(ctx).Warn("access token revocation by wrong client ignored",
			slog.String("sub", claims.Subject),
			slog.String("client_id", clientID),
		)
		return nil
	}

	now := s.Now()
	base := domain.Revocation{
		Kind:      domain.RevocationAccess,
		Subject:   claims.Subject,
		Reason:    reason,
		RevokedAt: now,
		ExpiresAt: s.Tokens.recordExpiry(claims.ExpiresAt.Time),
	}

	for _, id := range []string{claims.ID, DerivedID(token, kid, claims.IssuedAt.Time)} {
		if id == "" {
			continue
		}
		rv := base
		rv.ID = id
		if _, err := s.List.Revoke(ctx, rv); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}

	slogx.FromContext(ctx).Info("access token revoked",
		slog.String("sub", claims.Subject),
		slog.String("jti", claims.ID),
		slog.String("reason", reason),
	)
	return nil
}

func (s *RevocationService) revokeChain(ctx context.Context, chainID, subject, reason string) error {
	now := s.Now()
	n, err := s.Store.RefreshTokens().RevokeChain(ctx, chainID, reason, now)
	if err != nil {
		return fmt.Errorf("revoke chain: %w", err)
	}
	if err := s.Tokens.recordChainRevocation(ctx, chainID, subject, reason, now); err != nil {
		return fmt.Errorf("revoke chain: %w", err)
	}

	slogx.FromContext(ctx).Info("refresh chain revoked",
		slog.String("chain_id", chainID),
		slog.Int64("tokens", n),
		slog.String("reason", reason),
	)
	return nil
}

// RevokeSubject revokes every refresh chain of subject and every access
// token issued to it up to now. It returns the number of chains revoked.
func (s *RevocationService) RevokeSubject(ctx context.Context, subject, reason string) (int, error) {
	if subject == "" {
		return 0, ErrInvalidRequest
	}
	if reason == "" {
		reason = ReasonRevoked
	}

	chains, err := s.Store.RefreshTokens().ListSubjectChains(ctx, subject)
	if err != nil {
		return 0, fmt.Errorf("revoke subject: %w", err)
	}
	for _, chainID := range chains {
		if err := s.revokeChain(ctx, chainID, subject, reason); err != nil {
			return 0, err
		}
	}

	cutoff := s.Now().Truncate(time.Second)
	_, err = s.List.Revoke(ctx, domain.Revocation{
		ID:        "subject:" + subject + ":" + strconv.FormatInt(cutoff.Unix(), 10),
		Kind:      domain.RevocationSubject,
		Subject:   subject,
		Reason:    reason,
		RevokedAt: cutoff,
		ExpiresAt: s.Tokens.recordExpiry(cutoff.Add(s.Tokens.Config.AccessTTL)),
	})
	if err != nil {
		return 0, fmt.Errorf("revoke subject: %w", err)
	}

	slogx.FromContext(ctx).Warn("subject revoked",
		slog.String("sub", subject),
		slog.Int("chains", len(chains)),
		slog.String("reason", reason),
	)
	return len(chains), nil
}

// ListChains returns the ids of the subject's refresh chains that have not
// been revoked.
func (s *RevocationService) ListChains(ctx context.Context, subject string) ([]string, error) {
	if subject == "" {
		return nil, ErrInvalidRequest
	}
	chains, err := s.Store.RefreshTokens().ListSubjectChains(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	if chains == nil {
		chains = []string{}
	}
	return chains, nil
}

// Stats collects counters for the admin status endpoint.
func (s *RevocationService) Stats(ctx context.Context) (AdminStats, error) {
	now := s.Now()

	refresh, err := s.Store.RefreshTokens().Stats(ctx, now)
	if err != nil {
		return AdminStats{}, err
	}
	revocations, err := s.List.Count(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	identities, err := s.Store.Identities().CountIdentities(ctx)
	if err != nil {
		return AdminStats{}, err
	}

	keys := make(map[string]int)
	for _, k := range s.Keys.VerificationKeys().Keys(now) {
		keys[string(k.State)]++
	}

	return AdminStats{
		Refresh:     refresh,
		Revocations: revocations,
		Identities:  identities,
		Keys:        keys,
	}, nil
}
