package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// CredentialService checks username/password pairs against stored
// argon2id hashes.
type CredentialService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Now    func() time.Time

	// dummy is verified in place of a real hash so that unknown usernames
	// cost the same as wrong passwords.
	dummy string
}

func NewCredentialService(s store.Store, hasher *cryptox.Hasher, now func() time.Time) (*CredentialService, error) {
	if now == nil {
		now = time.Now
	}
	dummy, err := hasher.Hash("tollgate-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("build dummy hash: %w", err)
	}
	return &CredentialService{Store: s, Hasher: hasher, Now: now, dummy: dummy}, nil
}

// Verify reports whether password is correct for username. It returns false
// for every failure, including storage errors, and always runs one argon2id
// computation. A hash produced under older parameters is upgraded after a
// successful match.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (domain.Identity, bool) {
	l := slogx.FromContext(ctx)

	identity, err := s.Store.Identities().GetIdentityByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.Error("failed to load identity", slog.Any("error", err))
		}
		s.Hasher.Verify(password, s.dummy)
		return domain.Identity{}, false
	}

	if !s.Hasher.Verify(password, identity.PasswordHash) {
		return domain.Identity{}, false
	}
	if identity.Disabled {
		l.Info("login attempt for disabled identity", slog.String("sub", identity.ID))
		return domain.Identity{}, false
	}

	if s.Hasher.NeedsRehash(identity.PasswordHash) {
		s.rehash(ctx, &identity, password)
	}
	return identity, true
}

func (s *CredentialService) rehash(ctx context.Context, identity *domain.Identity, password string) {
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		l.Error("failed to rehash password", slog.Any("error", err))
		return
	}
	if err := s.Store.Identities().UpdatePasswordHash(ctx, identity.ID, hash, s.Now()); err != nil {
		l.Error("failed to store rehashed password", slog.Any("error", err), slog.String("sub", identity.ID))
		return
	}

	identity.PasswordHash = hash
	l.Info("password hash upgraded", slog.String("sub", identity.ID), slog.String("params", s.Hasher.Params().String()))
}
