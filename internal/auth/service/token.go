package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// Reasons recorded when a refresh chain is revoked.
const (
	ReasonReuse           = "reuse_detected"
	ReasonClientMismatch  = "client_mismatch"
	ReasonExpired         = "expired"
	ReasonIdentityRemoved = "identity_unavailable"
	ReasonRevoked         = "revoked"
	ReasonNotFound        = "not_found"
)

// KeyProvider is the part of *jwtx.KeyManager the token service needs.
type KeyProvider interface {
	jwtx.KeySource
	CurrentSigner() (jwtx.Signer, error)
}

// TokenConfig holds issuance policy.
type TokenConfig struct {
	Issuer   string
	Audience []string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RefreshMaxLifetime bounds a whole refresh chain. Rotation never
	// extends a chain past it.
	RefreshMaxLifetime time.Duration

	// Leeway tolerates clock skew on exp/nbf.
	Leeway time.Duration

	Now func() time.Time
}

type TokenService struct {
	Store       store.Store
	Keys        KeyProvider
	Credentials *CredentialService
	Revocations revocation.List
	Config      TokenConfig

	verifier *jwtx.Verifier
}

func NewTokenService(
	s store.Store,
	keys KeyProvider,
	creds *CredentialService,
	revocations revocation.List,
	cfg TokenConfig,
) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	if cfg.RefreshMaxLifetime < cfg.RefreshTTL {
		cfg.RefreshMaxLifetime = cfg.RefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenService{
		Store:       s,
		Keys:        keys,
		Credentials: creds,
		Revocations: revocations,
		Config:      cfg,
		verifier: jwtx.NewVerifier(keys, jwtx.VerifyOptions{
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
			Leeway:   cfg.Leeway,
			Now:      cfg.Now,
		}),
	}
}

// PasswordGrant authenticates with a username and password and issues a
// new token pair in a fresh refresh chain.
func (s *TokenService) PasswordGrant(ctx context.Context, username, password, clientID string) (domain.TokenPair, error) {
	identity, ok := s.Credentials.Verify(ctx, username, password)
	if !ok {
		return domain.TokenPair{}, ErrAuthenticationFailed
	}
	return s.Issue(ctx, identity, clientID)
}

// Issue mints an access token and a generation-0 refresh token.
func (s *TokenService) Issue(ctx context.Context, identity domain.Identity, clientID string) (domain.TokenPair, error) {
	now := s.Config.Now()
	chainID := idx.NewAt(now).String()
	chainExpiresAt := now.Add(s.Config.RefreshMaxLifetime)

	pair, err := s.mint(ctx, s.Store.RefreshTokens(), identity, clientID, chainID, 0, chainExpiresAt, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("token issued",
		slog.String("sub", identity.ID),
		slog.String("client_id", clientID),
		slog.String("chain_id", chainID),
	)
	return pair, nil
}

// Refresh exchanges a refresh token for the next generation of its chain.
//
// The exchange is a compare-and-consume: a conditional UPDATE marks the
// presented generation consumed and succeeds for exactly one caller. Every
// other outcome (unknown, already consumed, revoked, expired, presented by
// another client) revokes the chain and returns ErrRefreshReuseDetected.
func (s *TokenService) Refresh(ctx context.Context, refreshToken, clientID string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.Config.Now()
	hash := cryptox.FingerprintToken(refreshToken)

	var (
		pair   domain.TokenPair
		failed *domain.RefreshToken
		reason string
	)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		consumed, err := tx.RefreshTokens().ConsumeRefreshToken(ctx, hash, now)
		if err != nil {
			return err
		}

		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			reason = ReasonNotFound
			return nil
		}
		if err != nil {
			return err
		}

		fail := func(why string) error {
			failed, reason = &rt, why
			_, err := tx.RefreshTokens().RevokeChain(ctx, rt.ChainID, why, now)
			return err
		}

		if !consumed {
			return fail(consumeFailure(rt, now))
		}
		if rt.ClientID != clientID {
			return fail(ReasonClientMismatch)
		}

		identity, err := tx.Identities().GetIdentityByID(ctx, rt.Subject)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err != nil || identity.Disabled {
			return fail(ReasonIdentityRemoved)
		}

		pair, err = s.mint(ctx, tx.RefreshTokens(), identity, rt.ClientID, rt.ChainID, rt.Generation+1, rt.ChainExpiresAt, now)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}

	if reason == "" {
		l.Info("refresh token rotated", slog.String("chain_id", pair.ChainID))
		return pair, nil
	}

	if failed == nil {
		l.Warn("refresh token rejected", slog.String("reason", reason))
		return domain.TokenPair{}, ErrRefreshReuseDetected
	}

	l.Warn("refresh token reuse detected, chain revoked",
		slog.String("reason", reason),
		slog.String("chain_id", failed.ChainID),
		slog.String("sub", failed.Subject),
		slog.Int("generation", failed.Generation),
		slog.String("client_id", clientID),
	)
	if err := s.recordChainRevocation(ctx, failed.ChainID, failed.Subject, reason, now); err != nil {
		l.Error("failed to record chain revocation", slog.Any("error", err), slog.String("chain_id", failed.ChainID))
	}
	return domain.TokenPair{}, ErrRefreshReuseDetected
}

// consumeFailure explains why a known token could not be consumed.
func consumeFailure(rt domain.RefreshToken, now time.Time) string {
	switch {
	case rt.ConsumedAt != nil:
		return ReasonReuse
	case rt.Revoked:
		return ReasonRevoked
	case !now.Before(rt.ExpiresAt):
		return ReasonExpired
	}
	return ReasonReuse
}

// recordChainRevocation adds the chain to the revocation list so access
// tokens minted from it stop introspecting as active.
func (s *TokenService) recordChainRevocation(ctx context.Context, chainID, subject, reason string, now time.Time) error {
	_, err := s.Revocations.Revoke(ctx, domain.Revocation{
		ID:        chainID,
		Kind:      domain.RevocationChain,
		Subject:   subject,
		Reason:    reason,
		RevokedAt: now,
		ExpiresAt: s.recordExpiry(now.Add(s.Config.AccessTTL)),
	})
	return err
}

// recordExpiry is when a revocation record for a token expiring at exp can
// be pruned. The verifier accepts tokens up to Leeway past exp, so the
// record must outlive that window.
func (s *TokenService) recordExpiry(exp time.Time) time.Time {
	return exp.Add(s.Config.Leeway)
}

// VerifyAccess checks an access token's signature and claims. Every
// failure is reported as ErrTokenInvalid.
func (s *TokenService) VerifyAccess(ctx context.Context, token string) (*jwtx.Claims, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		slogx.FromContext(ctx).Debug("access token rejected", slog.Any("error", err))
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// mint signs an access token and stores the refresh token generation.
func (s *TokenService) mint(
	ctx context.Context,
	repo store.RefreshTokens,
	identity domain.Identity,
	clientID, chainID string,
	generation int,
	chainExpiresAt, now time.Time,
) (domain.TokenPair, error) {
	signer, err := s.Keys.CurrentSigner()
	if err != nil {
		return domain.TokenPair{}, err
	}

	access, err := signer.Sign(jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject:  identity.ID,
		SID:      chainID,
		ClientID: clientID,
		Role:     identity.Role,
		Username: identity.Username,
		Issuer:   s.Config.Issuer,
		Audience: s.Config.Audience,
		TTL:      s.Config.AccessTTL,
		Now:      now,
	}))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, err
	}

	expiresAt := now.Add(s.Config.RefreshTTL)
	if expiresAt.After(chainExpiresAt) {
		expiresAt = chainExpiresAt
	}

	err = repo.CreateRefreshToken(ctx, domain.RefreshToken{
		ID:             idx.NewAt(now).String(),
		TokenHash:      cryptox.FingerprintToken(opaque),
		ChainID:        chainID,
		Generation:     generation,
		Subject:        identity.ID,
		ClientID:       clientID,
		IssuedAt:       now,
		ExpiresAt:      expiresAt,
		ChainExpiresAt: chainExpiresAt,
	})
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: opaque,
		TokenType:    domain.TokenTypeBearer,
		ExpiresIn:    s.Config.AccessTTL,
		ChainID:      chainID,
	}, nil
}
