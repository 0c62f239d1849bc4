package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://auth.tollgate.test"
	testAudience = "game"
	testClient   = "web"
	testPassword = "correct horse battery"
)

var fastParams = cryptox.Params{Memory: 64, Time: 1, Parallelism: 1}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	clock       *fakeClock
	store       *sqlite.Store
	keyStore    *jwtx.MemoryKeyStore
	keys        *jwtx.KeyManager
	hasher      *cryptox.Hasher
	list        revocation.List
	credentials *service.CredentialService
	tokens      *service.TokenService
	revocations *service.RevocationService
	identities  *service.IdentityService
	logger      *slog.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithList(t, nil)
}

// newEnvWithList builds an env on the revocation list returned by newList.
// A nil newList uses the SQL list of the env's store.
func newEnvWithList(t *testing.T, newList func(s *sqlite.Store, now func() time.Time) revocation.List) *env {
	t.Helper()
	ctx := context.Background()
	clock := newFakeClock()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations(ctx))

	keyStore := jwtx.NewMemoryKeyStore()
	km, err := jwtx.NewKeyManager(ctx, jwtx.KeyManagerOptions{
		Store:            keyStore,
		Algorithm:        jwtx.AlgorithmEdDSA,
		RotationInterval: 24 * time.Hour,
		GracePeriod:      48 * time.Hour,
		Now:              clock.Now,
	})
	require.NoError(t, err)

	hasher, err := cryptox.NewHasher(fastParams, nil)
	require.NoError(t, err)

	creds, err := service.NewCredentialService(s, hasher, clock.Now)
	require.NoError(t, err)

	var list revocation.List = revocation.NewSQL(s)
	if newList != nil {
		list = newList(s, clock.Now)
	}
	tokens := service.NewTokenService(s, km, creds, list, service.TokenConfig{
		Issuer:             testIssuer,
		Audience:           []string{testAudience},
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         24 * time.Hour,
		RefreshMaxLifetime: 72 * time.Hour,
		Leeway:             5 * time.Second,
		Now:                clock.Now,
	})

	return &env{
		clock:       clock,
		store:       s,
		keyStore:    keyStore,
		keys:        km,
		hasher:      hasher,
		list:        list,
		credentials: creds,
		tokens:      tokens,
		revocations: service.NewRevocationService(s, tokens, list, km),
		identities:  service.NewIdentityService(s, hasher, clock.Now),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *env) createIdentity(t *testing.T, username, role string) domain.Identity {
	t.Helper()
	identity, err := e.identities.CreateIdentity(context.Background(), username, testPassword, role)
	require.NoError(t, err)
	return identity
}

func (e *env) login(t *testing.T, username string) domain.TokenPair {
	t.Helper()
	pair, err := e.tokens.PasswordGrant(context.Background(), username, testPassword, testClient)
	require.NoError(t, err)
	return pair
}
