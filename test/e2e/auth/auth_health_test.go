//go:build integration

package auth_test

import (
	"encoding/json"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check endpoint.
func TestLivezEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

// TestReadyzEndpoint verifies every readiness check passes.
func TestReadyzEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)
	require.Equal(t, "ok", health.Checks.Revocations)
}

// TestJWKSEndpoint verifies the active key is published.
func TestJWKSEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.NotNil(t, jwks)
	require.Len(t, jwks.Keys, 1, "JWKS should contain exactly the active key")

	for _, key := range jwks.Keys {
		require.Equal(t, "EdDSA", key.Alg)
		require.Equal(t, "sig", key.Use)
		keyJSON, _ := json.Marshal(key)
		t.Logf("Key JSON: %s", keyJSON)
	}
}
