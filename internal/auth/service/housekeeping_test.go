package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingService_Cleanup(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createIdentity(t, "alice", domain.RolePlayer)

	stale := e.login(t, "alice")
	require.NoError(t, e.revocations.Revoke(ctx, service.RevokeRequest{Token: stale.AccessToken, ClientID: testClient}))

	oldKid := e.keys.VerificationKeys().Signer().KID()
	require.NoError(t, e.keys.Rotate(ctx))

	// Past the refresh TTL, the access TTL and the key grace window.
	e.clock.Advance(49 * time.Hour)
	fresh := e.login(t, "alice")

	hk := service.NewHousekeepingService(e.store, e.list, e.keyStore, e.keys, e.logger, 0)
	hk.Now = e.clock.Now
	require.Equal(t, time.Hour, hk.Interval)
	report := hk.Cleanup(ctx)
	require.Zero(t, report.Failures)
	require.EqualValues(t, 1, report.RefreshTokens)
	require.EqualValues(t, 2, report.Revocations)
	require.EqualValues(t, 1, report.SigningKeys)

	_, err := e.store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(stale.RefreshToken))
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = e.store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(fresh.RefreshToken))
	require.NoError(t, err)

	n, err := e.list.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	records, err := e.keyStore.LoadSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotEqual(t, oldKid, records[0].Kid)
	require.Equal(t, 1, e.keys.VerificationKeys().Len())

	// A purged refresh token is simply unknown.
	_, err = e.tokens.Refresh(ctx, stale.RefreshToken, testClient)
	require.ErrorIs(t, err, service.ErrRefreshReuseDetected)
}

func TestHousekeepingService_StartStop(t *testing.T) {
	e := newEnv(t)
	hk := service.NewHousekeepingService(e.store, e.list, nil, nil, e.logger, 10*time.Millisecond)
	hk.Start()
	time.Sleep(30 * time.Millisecond)
	hk.Stop()
}
