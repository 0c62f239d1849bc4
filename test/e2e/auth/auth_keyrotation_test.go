//go:build integration

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestKeyRotation verifies the key rotation flow:
// 1. Login as admin
// 2. List initial keys (exactly one active key)
// 3. Rotate
// 4. Tokens signed by the retired key still verify
// 5. The active key cannot be revoked
// 6. Revoking the retired key invalidates its tokens
func TestKeyRotation(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)

	// 1. Login with admin user
	oldSession := performLogin(t, client, adminUsername, adminPassword)

	// 2. List initial keys
	initialKeys, err := oldSession.ListKeys(t.Context())
	require.NoError(t, err)
	require.Len(t, initialKeys, 1, "Should have exactly 1 initial key")
	require.Equal(t, "active", initialKeys[0].State)
	initialKid := initialKeys[0].Kid

	// 3. Rotate
	newKey, err := oldSession.RotateKey(t.Context())
	require.NoError(t, err)
	require.NotEqual(t, initialKid, newKey.Kid)
	require.Equal(t, "active", newKey.State)

	// 4. The old token still works, and both keys are published
	keys, err := oldSession.ListKeys(t.Context())
	require.NoError(t, err)
	require.Len(t, keys, 2)
	for _, k := range keys {
		if k.Kid == initialKid {
			require.Equal(t, "retired", k.State)
			require.NotNil(t, k.VerifyUntil)
		}
	}

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 2)

	// 5. A session on the new key cannot revoke the active key
	newSession := performLogin(t, client, adminUsername, adminPassword)
	err = newSession.RevokeKey(t.Context(), newKey.Kid)
	require.ErrorIs(t, err, authsdk.ErrActiveKey)

	// 6. Revoke the retired key
	require.NoError(t, newSession.RevokeKey(t.Context(), initialKid))

	_, err = oldSession.ListKeys(t.Context())
	assertStatus(t, err, 401, "Tokens of a revoked key should be rejected")

	keys, err = newSession.ListKeys(t.Context())
	require.NoError(t, err)
	require.Len(t, keys, 1)

	err = newSession.RevokeKey(t.Context(), "does-not-exist")
	require.ErrorIs(t, err, authsdk.ErrKeyNotFound)
}
