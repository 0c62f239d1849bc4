package jwtx_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	exampleIssuer   = "https://auth.example.test"
	exampleAudience = "game"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
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

func newTestManager(t *testing.T, clock *fakeClock, store jwtx.KeyStore) *jwtx.KeyManager {
	t.Helper()
	if store == nil {
		store = jwtx.NewMemoryKeyStore()
	}
	km, err := jwtx.NewKeyManager(context.Background(), jwtx.KeyManagerOptions{
		Store:            store,
		Algorithm:        jwtx.AlgorithmEdDSA,
		RotationInterval: 24 * time.Hour,
		GracePeriod:      24 * time.Hour,
		Now:              clock.Now,
	})
	require.NoError(t, err)
	return km
}

func issue(t *testing.T, km *jwtx.KeyManager, clock *fakeClock, ttl time.Duration) string {
	t.Helper()
	signer, err := km.CurrentSigner()
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAccessClaims(jwtx.AccessClaimsParams{
		Subject:  "u1",
		Role:     "player",
		Issuer:   exampleIssuer,
		Audience: []string{exampleAudience},
		TTL:      ttl,
		Now:      clock.Now(),
	}))
	require.NoError(t, err)
	return token
}

func newTestVerifier(src jwtx.KeySource, clock *fakeClock) *jwtx.Verifier {
	return jwtx.NewVerifier(src, jwtx.VerifyOptions{
		Issuer:   exampleIssuer,
		Audience: []string{exampleAudience},
		Now:      clock.Now,
	})
}
