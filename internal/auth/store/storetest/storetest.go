// Package storetest holds the behaviour every store.Store driver must show.
// Driver packages run it against a fresh, migrated store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh store with migrations applied.
type Factory func(t *testing.T) store.Store

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("Identities", func(t *testing.T) { testIdentities(t, newStore(t)) })
	t.Run("RefreshConsume", func(t *testing.T) { testRefreshConsume(t, newStore(t)) })
	t.Run("RefreshConcurrentConsume", func(t *testing.T) { testRefreshConcurrentConsume(t, newStore(t)) })
	t.Run("RefreshChains", func(t *testing.T) { testRefreshChains(t, newStore(t)) })
	t.Run("SigningKeys", func(t *testing.T) { testSigningKeys(t, newStore(t)) })
	t.Run("Revocations", func(t *testing.T) { testRevocations(t, newStore(t)) })
	t.Run("WithTxRollback", func(t *testing.T) { testWithTxRollback(t, newStore(t)) })
}

// SeedIdentity inserts an identity and returns it.
func SeedIdentity(t *testing.T, s store.Store, id, username string) domain.Identity {
	t.Helper()
	i := domain.Identity{
		ID:           id,
		Username:     username,
		Role:         domain.RolePlayer,
		PasswordHash: "$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	require.NoError(t, s.Identities().CreateIdentity(context.Background(), i))
	return i
}

func refreshToken(id, hash, chain string, gen int, subject string) domain.RefreshToken {
	return domain.RefreshToken{
		ID:             id,
		TokenHash:      hash,
		ChainID:        chain,
		Generation:     gen,
		Subject:        subject,
		ClientID:       "web",
		IssuedAt:       base,
		ExpiresAt:      base.Add(time.Hour),
		ChainExpiresAt: base.Add(24 * time.Hour),
	}
}

func testIdentities(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := SeedIdentity(t, s, "id-alice", "alice")

	err := s.Identities().CreateIdentity(ctx, domain.Identity{
		ID: "id-other", Username: "alice", Role: domain.RolePlayer, PasswordHash: "x",
		CreatedAt: base, UpdatedAt: base,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.Identities().GetIdentityByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.Equal(t, alice.PasswordHash, got.PasswordHash)
	require.True(t, got.CreatedAt.Equal(base))
	require.False(t, got.Disabled)

	_, err = s.Identities().GetIdentityByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	later := base.Add(time.Minute)
	require.NoError(t, s.Identities().UpdatePasswordHash(ctx, alice.ID, "new-hash", later))
	require.NoError(t, s.Identities().SetDisabled(ctx, alice.ID, true, later))

	got, err = s.Identities().GetIdentityByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.True(t, got.Disabled)
	require.True(t, got.UpdatedAt.Equal(later))

	require.ErrorIs(t, s.Identities().SetDisabled(ctx, "missing", true, later), store.ErrNotFound)

	n, err := s.Identities().CountIdentities(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func testRefreshConsume(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedIdentity(t, s, "id-bob", "bob")
	repo := s.RefreshTokens()

	require.NoError(t, repo.CreateRefreshToken(ctx, refreshToken("rt-1", "hash-1", "chain-1", 0, "id-bob")))
	require.ErrorIs(t, repo.CreateRefreshToken(ctx, refreshToken("rt-2", "hash-2", "chain-1", 0, "id-bob")),
		store.ErrAlreadyExists, "generation is unique per chain")

	now := base.Add(time.Minute)
	ok, err := repo.ConsumeRefreshToken(ctx, "hash-1", now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ConsumeRefreshToken(ctx, "hash-1", now)
	require.NoError(t, err)
	require.False(t, ok, "a token is consumed once")

	ok, err = repo.ConsumeRefreshToken(ctx, "unknown", now)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := repo.GetRefreshTokenByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, got.ConsumedAt)
	require.True(t, got.ConsumedAt.Equal(now))
	require.False(t, got.Usable(now))

	// Expired tokens cannot be consumed.
	require.NoError(t, repo.CreateRefreshToken(ctx, refreshToken("rt-3", "hash-3", "chain-3", 0, "id-bob")))
	ok, err = repo.ConsumeRefreshToken(ctx, "hash-3", base.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, ok)

	// Revoked tokens cannot be consumed.
	require.NoError(t, repo.CreateRefreshToken(ctx, refreshToken("rt-4", "hash-4", "chain-4", 0, "id-bob")))
	_, err = repo.RevokeChain(ctx, "chain-4", "test", now)
	require.NoError(t, err)
	ok, err = repo.ConsumeRefreshToken(ctx, "hash-4", now)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = repo.GetRefreshTokenByHash(ctx, "unknown")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testRefreshConcurrentConsume(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedIdentity(t, s, "id-carol", "carol")
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, refreshToken("rt-c", "hash-c", "chain-c", 0, "id-carol")))

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.RefreshTokens().ConsumeRefreshToken(ctx, "hash-c", base.Add(time.Minute))
			if err != nil {
				t.Errorf("consume: %v", err)
				return
			}
			if ok {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, success)
}

func testRefreshChains(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedIdentity(t, s, "id-dave", "dave")
	repo := s.RefreshTokens()

	require.NoError(t, repo.CreateRefreshToken(ctx, refreshToken("a0", "ha0", "chain-a", 0, "id-dave")))
	require.NoError(t, repo.CreateRefreshToken(ctx, refreshToken("a1", "ha1", "chain-a", 1, "id-dave")))
	require.NoError(t, repo.CreateRefreshToken(ctx, refreshToken("b0", "hb0", "chain-b", 0, "id-dave")))

	chains, err := repo.ListSubjectChains(ctx, "id-dave")
	require.NoError(t, err)
	require.Equal(t, []string{"chain-a", "chain-b"}, chains)

	stats, err := repo.Stats(ctx, base)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.ActiveTokens)
	require.EqualValues(t, 2, stats.ActiveChains)
	require.EqualValues(t, 0, stats.RevokedChains)

	at := base.Add(time.Minute)
	n, err := repo.RevokeChain(ctx, "chain-a", "reuse", at)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = repo.RevokeChain(ctx, "chain-a", "again", at.Add(time.Minute))
	require.NoError(t, err)
	require.Zero(t, n, "revoking twice changes nothing")

	got, err := repo.GetRefreshTokenByHash(ctx, "ha1")
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.Equal(t, "reuse", got.RevokedReason)
	require.True(t, got.RevokedAt.Equal(at))

	chains, err = repo.ListSubjectChains(ctx, "id-dave")
	require.NoError(t, err)
	require.Equal(t, []string{"chain-b"}, chains)

	stats, err = repo.Stats(ctx, base)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.ActiveChains)
	require.EqualValues(t, 1, stats.RevokedChains)

	deleted, err := repo.DeleteExpiredRefreshTokens(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)
}

func signingKey(kid, state string, createdAt time.Time) domain.SigningKey {
	return domain.SigningKey{
		Kid:                 kid,
		Algorithm:           "EdDSA",
		State:               state,
		PrivateKeyEncrypted: []byte("sealed-" + kid),
		CreatedAt:           createdAt,
	}
}

func testSigningKeys(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.SigningKeys()

	require.NoError(t, repo.CreateSigningKey(ctx, signingKey("k1", domain.KeyStateActive, base)))
	require.ErrorIs(t, repo.CreateSigningKey(ctx, signingKey("k2", domain.KeyStateActive, base.Add(time.Hour))),
		store.ErrAlreadyExists, "only one active key")

	retiredAt := base.Add(time.Hour)
	verifyUntil := retiredAt.Add(48 * time.Hour)
	n, err := repo.RetireActiveSigningKeys(ctx, retiredAt, verifyUntil)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.NoError(t, repo.CreateSigningKey(ctx, signingKey("k2", domain.KeyStateActive, retiredAt)))

	keys, err := repo.ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, "k2", keys[0].Kid, "newest first")
	require.Equal(t, domain.KeyStateRetired, keys[1].State)
	require.True(t, keys[1].VerifyUntil.Equal(verifyUntil))
	require.Equal(t, []byte("sealed-k1"), keys[1].PrivateKeyEncrypted)
	require.True(t, keys[1].Verifies(retiredAt))
	require.False(t, keys[1].Verifies(verifyUntil))

	require.ErrorIs(t, repo.RevokeSigningKey(ctx, "k2", retiredAt), store.ErrNotFound, "active keys are not revoked here")
	require.ErrorIs(t, repo.RevokeSigningKey(ctx, "missing", retiredAt), store.ErrNotFound)
	require.NoError(t, repo.RevokeSigningKey(ctx, "k1", retiredAt))

	keys, err = repo.ListSigningKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.KeyStateRevoked, keys[1].State)
	require.NotNil(t, keys[1].RevokedAt)

	deleted, err := repo.DeleteExpiredSigningKeys(ctx, verifyUntil.Add(-time.Second))
	require.NoError(t, err)
	require.Zero(t, deleted)

	deleted, err = repo.DeleteExpiredSigningKeys(ctx, verifyUntil)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
}

func testRevocations(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Revocations()

	rv := domain.Revocation{
		ID:        "jti-1",
		Kind:      domain.RevocationAccess,
		Subject:   "id-erin",
		Reason:    "logout",
		RevokedAt: base,
		ExpiresAt: base.Add(15 * time.Minute),
	}
	created, err := repo.CreateRevocation(ctx, rv)
	require.NoError(t, err)
	require.True(t, created)

	again := rv
	again.Reason = "second"
	created, err = repo.CreateRevocation(ctx, again)
	require.NoError(t, err)
	require.False(t, created)

	got, err := repo.GetRevocation(ctx, "jti-1")
	require.NoError(t, err)
	require.Equal(t, "logout", got.Reason, "the first record wins")

	_, err = repo.GetRevocation(ctx, "jti-unknown")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.LatestSubjectRevocation(ctx, "id-erin")
	require.ErrorIs(t, err, store.ErrNotFound)

	for i, at := range []time.Time{base, base.Add(time.Minute)} {
		_, err := repo.CreateRevocation(ctx, domain.Revocation{
			ID:        "subject:id-erin:" + string(rune('a'+i)),
			Kind:      domain.RevocationSubject,
			Subject:   "id-erin",
			RevokedAt: at,
			ExpiresAt: at.Add(15 * time.Minute),
		})
		require.NoError(t, err)
	}
	latest, err := repo.LatestSubjectRevocation(ctx, "id-erin")
	require.NoError(t, err)
	require.True(t, latest.RevokedAt.Equal(base.Add(time.Minute)))

	n, err := repo.CountRevocations(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	deleted, err := repo.DeleteExpiredRevocations(ctx, base.Add(15*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)
}

func testWithTxRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		SeedIdentity(t, tx, "id-tx", "tx-user")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Identities().GetIdentityByID(ctx, "id-tx")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		SeedIdentity(t, tx, "id-tx", "tx-user")
		return nil
	}))
	_, err = s.Identities().GetIdentityByID(ctx, "id-tx")
	require.NoError(t, err)
}
