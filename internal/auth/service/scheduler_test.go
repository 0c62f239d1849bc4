package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type flakyKeyStore struct {
	*jwtx.MemoryKeyStore
	fail atomic.Bool
}

func (f *flakyKeyStore) SaveRotation(ctx context.Context, next jwtx.SigningKeyRecord, retiredAt, verifyUntil time.Time) error {
	if f.fail.Load() {
		return errors.New("database is locked")
	}
	return f.MemoryKeyStore.SaveRotation(ctx, next, retiredAt, verifyUntil)
}

func newSchedulerManager(t *testing.T, clock *fakeClock, ks jwtx.KeyStore) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewKeyManager(context.Background(), jwtx.KeyManagerOptions{
		Store:            ks,
		RotationInterval: 24 * time.Hour,
		GracePeriod:      48 * time.Hour,
		Now:              clock.Now,
	})
	require.NoError(t, err)
	return km
}

func activeKid(t *testing.T, km *jwtx.KeyManager) string {
	t.Helper()
	signer, err := km.CurrentSigner()
	require.NoError(t, err)
	return signer.KID()
}

func TestRotationScheduler_Tick(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	km := newSchedulerManager(t, e.clock, jwtx.NewMemoryKeyStore())
	sched := service.NewRotationScheduler(km, e.logger, 0)
	require.Equal(t, 24*time.Minute, sched.Interval)

	first := activeKid(t, km)

	e.clock.Advance(23 * time.Hour)
	sched.Tick(ctx)
	require.Equal(t, first, activeKid(t, km))

	e.clock.Advance(time.Hour)
	sched.Tick(ctx)
	second := activeKid(t, km)
	require.NotEqual(t, first, second)

	// The retired key keeps verifying through its grace window.
	_, err := km.VerificationKeys().Lookup(first, e.clock.Now())
	require.NoError(t, err)
}

func TestRotationScheduler_FailureKeepsCurrentKey(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ks := &flakyKeyStore{MemoryKeyStore: jwtx.NewMemoryKeyStore()}
	km := newSchedulerManager(t, e.clock, ks)
	sched := service.NewRotationScheduler(km, e.logger, time.Minute)

	kid := activeKid(t, km)
	ks.fail.Store(true)

	e.clock.Advance(25 * time.Hour)
	sched.Tick(ctx)
	require.Equal(t, kid, activeKid(t, km))
	require.True(t, km.IsReady())

	// The next tick after the store recovers rotates.
	ks.fail.Store(false)
	sched.Tick(ctx)
	require.NotEqual(t, kid, activeKid(t, km))
}

func TestRotationScheduler_PicksUpRotationFromPeer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shared := jwtx.NewMemoryKeyStore()

	a := newSchedulerManager(t, e.clock, shared)
	b := newSchedulerManager(t, e.clock, shared)
	require.Equal(t, activeKid(t, a), activeKid(t, b))

	require.NoError(t, a.Rotate(ctx))
	service.NewRotationScheduler(b, e.logger, time.Minute).Tick(ctx)
	require.Equal(t, activeKid(t, a), activeKid(t, b))
}

func TestRotationScheduler_StartStop(t *testing.T) {
	e := newEnv(t)
	sched := service.NewRotationScheduler(e.keys, e.logger, 10*time.Millisecond)
	sched.Start()
	time.Sleep(30 * time.Millisecond)
	sched.Stop()
}
