package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/idx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

const minPasswordLength = 8

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrWeakPassword    = errors.New("password too short")
	ErrInvalidRole     = errors.New("invalid role")
	ErrUsernameTaken   = errors.New("username already taken")
)

// IdentityService creates identities. The token core only reads them; this
// exists for the operator bootstrap and tests.
type IdentityService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Now    func() time.Time
}

func NewIdentityService(s store.Store, hasher *cryptox.Hasher, now func() time.Time) *IdentityService {
	if now == nil {
		now = time.Now
	}
	return &IdentityService{Store: s, Hasher: hasher, Now: now}
}

// CreateIdentity hashes password and stores a new identity.
func (s *IdentityService) CreateIdentity(ctx context.Context, username, password, role string) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 64 {
		return domain.Identity{}, ErrInvalidUsername
	}
	if len(password) < minPasswordLength {
		return domain.Identity{}, ErrWeakPassword
	}
	switch role {
	case domain.RolePlayer, domain.RoleService, domain.RoleAdmin:
	default:
		return domain.Identity{}, ErrInvalidRole
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.Now()
	identity := domain.Identity{
		ID:           idx.NewAt(now).String(),
		Username:     username,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Identities().CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Identity{}, ErrUsernameTaken
		}
		return domain.Identity{}, err
	}
	return identity, nil
}

// EnsureBootstrapAdmin creates an admin identity when the store holds no
// identities yet. It reports whether one was created.
func (s *IdentityService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	n, err := s.Store.Identities().CountIdentities(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	identity, err := s.CreateIdentity(ctx, username, password, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	slogx.FromContext(ctx).Info("bootstrap admin created", slog.String("sub", identity.ID), slog.String("username", username))
	return true, nil
}

// SetDisabled enables or disables an identity. Disabled identities can
// neither log in nor refresh.
func (s *IdentityService) SetDisabled(ctx context.Context, id string, disabled bool) error {
	return s.Store.Identities().SetDisabled(ctx, id, disabled, s.Now())
}
