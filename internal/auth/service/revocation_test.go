package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRevocationService_IntrospectRevokeRevokeAgain(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.createIdentity(t, "alice", domain.RolePlayer)
	pair := e.login(t, "alice")

	res := e.revocations.Introspect(ctx, pair.AccessToken, "")
	require.True(t, res.Active)
	require.Equal(t, alice.ID, res.Sub)
	require.Equal(t, e.clock.Now().Add(15*time.Minute).Unix(), res.Exp)
	require.Equal(t, e.clock.Now().Unix(), res.Iat)

	req := service.RevokeRequest{Token: pair.AccessToken, TokenHint: service.HintAccessToken, ClientID: testClient}
	require.NoError(t, e.revocations.Revoke(ctx, req))
	require.Equal(t, service.Introspection{}, e.revocations.Introspect(ctx, pair.AccessToken, ""))

	// Revoking again changes nothing and still succeeds.
	count, err := e.list.Count(ctx)
	require.NoError(t, err)
	require.NoError(t, e.revocations.Revoke(ctx, req))
	again, err := e.list.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, count, again)
	require.False(t, e.revocations.Introspect(ctx, pair.AccessToken, "").Active)

	_, err = e.revocations.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, service.ErrTokenInvalid)

	// The refresh chain is untouched by an access token revocation.
	_, err = e.tokens.Refresh(ctx, pair.RefreshToken, testClient)
	require.NoError(t, err)
}

func TestRevocationService_RevokeRefreshToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createIdentity(t, "alice", domain.RolePlayer)
	pair := e.login(t, "alice")

	res := e.revocations.Introspect(ctx, pair.RefreshToken, service.HintRefreshToken)
	require.True(t, res.Active)
	require.Equal(t, service.HintRefreshToken, res.TokenType)

	require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: pair.RefreshToken, ClientID: testClient}))

	// The chain and the access tokens minted from it are gone.
	require.False(t, e.revocations.Introspect(ctx, pair.RefreshToken, service.HintRefreshToken).Active)
	require.False(t, e.revocations.Introspect(ctx, pair.AccessToken, "").Active)

	_, err := e.tokens.Refresh(ctx, pair.RefreshToken, testClient)
	require.ErrorIs(t, err, service.ErrRefreshReuseDetected)

	require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: pair.RefreshToken, ClientID: testClient}))
}

func TestRevocationService_RevokeChainByID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createIdentity(t, "alice", domain.RolePlayer)
	pair := e.login(t, "alice")

	require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{ChainID: pair.ChainID, Reason: "admin"}))

	_, err := e.tokens.Refresh(ctx, pair.RefreshToken, testClient)
	require.ErrorIs(t, err, service.ErrRefreshReuseDetected)
	require.False(t, e.revocations.Introspect(ctx, pair.AccessToken, "").Active)
}

func TestRevocationService_RevokeUnknownIsNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: "opaque-but-unknown", ClientID: testClient}))
	require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: "aaa.bbb.ccc", ClientID: testClient}))

	n, err := e.list.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	err = e.revocations.Revoke(ctx, service.RevokeRequest{Token: "   ", ClientID: testClient})
	require.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestRevocationService_IntrospectInactive(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createIdentity(t, "alice", domain.RolePlayer)
	pair := e.login(t, "alice")

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "garbage",
		"jwt":     "aaa.bbb.ccc",
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, service.Introspection{}, e.revocations.Introspect(ctx, token, ""))
		})
	}

	t.Run("expired", func(t *testing.T) {
		e.clock.Advance(16 * time.Minute)
		require.Equal(t, service.Introspection{}, e.revocations.Introspect(ctx, pair.AccessToken, ""))
	})
}

func TestRevocationService_RefreshWithoutHint(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.createIdentity(t, "alice", domain.RolePlayer)
	pair := e.login(t, "alice")

	res := e.revocations.Introspect(ctx, pair.RefreshToken, "")
	require.True(t, res.Active)
	require.Equal(t, alice.ID, res.Sub)

	// A consumed generation is no longer active.
	_, err := e.tokens.Refresh(ctx, pair.RefreshToken, testClient)
	require.NoError(t, err)
	require.False(t, e.revocations.Introspect(ctx, pair.RefreshToken, "").Active)
}

func TestRevocationService_RevokeSubject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.createIdentity(t, "alice", domain.RolePlayer)
	e.createIdentity(t, "bob", domain.RolePlayer)

	first := e.login(t, "alice")
	second := e.login(t, "alice")
	bobs := e.login(t, "bob")

	e.clock.Advance(time.Second)
	n, err := e.revocations.RevokeSubject(ctx, alice.ID, "compromised")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	for _, p := range []domain.TokenPair{first, second} {
		require.False(t, e.revocations.Introspect(ctx, p.AccessToken, "").Active)
		_, err := e.tokens.Refresh(ctx, p.RefreshToken, testClient)
		require.ErrorIs(t, err, service.ErrRefreshReuseDetected)
	}
	require.True(t, e.revocations.Introspect(ctx, bobs.AccessToken, "").Active)

	// Tokens issued after the cut-off are unaffected.
	e.clock.Advance(time.Second)
	fresh := e.login(t, "alice")
	require.True(t, e.revocations.Introspect(ctx, fresh.AccessToken, "").Active)

	_, err = e.revocations.RevokeSubject(ctx, "", "")
	require.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestRevocationService_RevokeSubjectWithinTheSameSecond(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.createIdentity(t, "alice", domain.RolePlayer)

	e.clock.Advance(300 * time.Millisecond)
	before := e.login(t, "alice")

	e.clock.Advance(300 * time.Millisecond)
	_, err := e.revocations.RevokeSubject(ctx, alice.ID, "password reset")
	require.NoError(t, err)

	// A login later in the same second is not dead on arrival, while the
	// token issued before the revocation stays revoked through its chain.
	e.clock.Advance(300 * time.Millisecond)
	after := e.login(t, "alice")
	require.True(t, e.revocations.Introspect(ctx, after.AccessToken, "").Active)
	_, err = e.revocations.Authenticate(ctx, after.AccessToken)
	require.NoError(t, err)
	require.False(t, e.revocations.Introspect(ctx, before.AccessToken, "").Active)

	// Tokens from the previous second are covered by the cut-off itself.
	at, ok, err := e.list.SubjectRevokedAt(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, at.Equal(e.clock.Now().Truncate(time.Second)))
}

func TestRevocationService_ForeignClientCannotRevoke(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createIdentity(t, "alice", domain.RolePlayer)
	pair := e.login(t, "alice")

	for _, token := range []string{pair.AccessToken, pair.RefreshToken} {
		require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: token, ClientID: "intruder"}))
	}

	n, err := e.list.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.True(t, e.revocations.Introspect(ctx, pair.AccessToken, "").Active)
	require.True(t, e.revocations.Introspect(ctx, pair.RefreshToken, service.HintRefreshToken).Active)

	err = e.revocations.Revoke(ctx, service.RevokeRequest{Token: pair.AccessToken})
	require.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestRevocationService_RecordsOutliveVerifierLeeway(t *testing.T) {
	backends := map[string]func(t *testing.T) (*env, func(time.Duration)){
		"sql": func(t *testing.T) (*env, func(time.Duration)) {
			e := newEnv(t)
			return e, e.clock.Advance
		},
		"redis": func(t *testing.T) (*env, func(time.Duration)) {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			e := newEnvWithList(t, func(_ *sqlite.Store, now func() time.Time) revocation.List {
				return revocation.NewRedis(rdb, "", now)
			})
			return e, func(d time.Duration) {
				e.clock.Advance(d)
				mr.FastForward(d)
			}
		},
	}

	for name, setup := range backends {
		t.Run(name, func(t *testing.T) {
			e, advance := setup(t)
			ctx := context.Background()
			e.createIdentity(t, "alice", domain.RolePlayer)
			e.createIdentity(t, "bob", domain.RolePlayer)
			carol := e.createIdentity(t, "carol", domain.RolePlayer)

			access := e.login(t, "alice")
			chained := e.login(t, "bob")
			subject := e.login(t, "carol")

			require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: access.AccessToken, ClientID: testClient}))
			require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: chained.RefreshToken, ClientID: testClient}))
			advance(time.Second)
			_, err := e.revocations.RevokeSubject(ctx, carol.ID, "")
			require.NoError(t, err)

			// Past exp but inside the 5s leeway the verifier still accepts the
			// tokens, so purging must not drop their records yet.
			advance(15*time.Minute + time.Second)
			_, err = e.list.Purge(ctx, e.clock.Now())
			require.NoError(t, err)

			for _, token := range []string{access.AccessToken, chained.AccessToken, subject.AccessToken} {
				_, err := e.tokens.VerifyAccess(ctx, token)
				require.NoError(t, err)
				require.False(t, e.revocations.Introspect(ctx, token, "").Active)
			}

			// Once the leeway is over the tokens fail on their own.
			advance(5 * time.Second)
			for _, token := range []string{access.AccessToken, chained.AccessToken, subject.AccessToken} {
				_, err := e.tokens.VerifyAccess(ctx, token)
				require.ErrorIs(t, err, service.ErrTokenInvalid)
			}
		})
	}
}

func TestRevocationService_Stats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createIdentity(t, "alice", domain.RolePlayer)
	e.createIdentity(t, "bob", domain.RolePlayer)

	e.login(t, "alice")
	revoked := e.login(t, "bob")
	require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: revoked.RefreshToken, ClientID: testClient}))

	stats, err := e.revocations.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Identities)
	require.EqualValues(t, 1, stats.Refresh.ActiveTokens)
	require.EqualValues(t, 1, stats.Refresh.ActiveChains)
	require.EqualValues(t, 1, stats.Refresh.RevokedChains)
	require.EqualValues(t, 1, stats.Revocations)
	require.Equal(t, 1, stats.Keys["active"])
}
