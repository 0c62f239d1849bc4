//go:build integration

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestIntrospectAndRevoke walks an access token through introspection,
// revocation and repeated revocation.
func TestIntrospectAndRevoke(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)
	admin := performLogin(t, client, adminUsername, adminPassword)

	target, err := client.PasswordGrant(t.Context(), adminUsername, adminPassword)
	require.NoError(t, err)

	resp, err := admin.Introspect(t.Context(), target.AccessToken, "")
	require.NoError(t, err)
	require.True(t, resp.Active)
	require.NotEmpty(t, resp.Sub)
	require.Greater(t, resp.Exp, resp.Iat)

	// Revocation is idempotent
	require.NoError(t, client.RevokeToken(t.Context(), target.AccessToken, "access_token"))
	require.NoError(t, client.RevokeToken(t.Context(), target.AccessToken, "access_token"))

	resp, err = admin.Introspect(t.Context(), target.AccessToken, "")
	require.NoError(t, err)
	require.False(t, resp.Active)

	// The refresh chain is untouched by revoking one access token
	_, err = client.RefreshGrant(t.Context(), target.RefreshToken)
	require.NoError(t, err)

	// Unknown tokens revoke successfully and introspect as inactive
	require.NoError(t, client.RevokeToken(t.Context(), "garbage", ""))
	resp, err = admin.Introspect(t.Context(), "garbage", "")
	require.NoError(t, err)
	require.False(t, resp.Active)
}

// TestIntrospectRequiresAdmin verifies introspection needs an admin bearer.
func TestIntrospectRequiresAdmin(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)

	anonymous := client.NewSessionFromTokens("invalid-token-12345", "", 3600)
	_, err := anonymous.Introspect(t.Context(), "anything", "")
	assertStatus(t, err, 401, "Invalid bearer should be rejected")
}

// TestRevokeSession verifies that revoking a refresh token ends the session.
func TestRevokeSession(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)
	admin := performLogin(t, client, adminUsername, adminPassword)

	session := performLogin(t, client, adminUsername, adminPassword)
	require.NoError(t, session.Revoke(t.Context()))

	_, err := client.RefreshGrant(t.Context(), session.RefreshToken())
	require.ErrorIs(t, err, authsdk.ErrRefreshInvalid)

	resp, err := admin.Introspect(t.Context(), session.AccessToken(), "")
	require.NoError(t, err)
	require.False(t, resp.Active, "Access tokens of a revoked chain are inactive")
}

// TestRevokeSubject verifies subject-wide revocation and the stats endpoint.
func TestRevokeSubject(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)
	admin := performLogin(t, client, adminUsername, adminPassword)

	victim, err := client.PasswordGrant(t.Context(), adminUsername, adminPassword)
	require.NoError(t, err)
	info, err := admin.Introspect(t.Context(), victim.AccessToken, "")
	require.NoError(t, err)

	stats, err := admin.Stats(t.Context())
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.ActiveChains)

	// Revoking the admin's own subject also kills the admin session
	resp, err := admin.RevokeSubject(t.Context(), info.Sub, "e2e")
	require.NoError(t, err)
	require.Equal(t, 2, resp.ChainsRevoked)

	_, err = client.RefreshGrant(t.Context(), victim.RefreshToken)
	require.ErrorIs(t, err, authsdk.ErrRefreshInvalid)

	// A login right after the cut-off works, even within the same second.
	fresh := performLogin(t, client, adminUsername, adminPassword)
	resp2, err := fresh.Stats(t.Context())
	require.NoError(t, err)
	require.EqualValues(t, 2, resp2.RevokedChains)
}

// TestRevokeIsBoundToClient verifies a client cannot revoke another
// client's tokens.
func TestRevokeIsBoundToClient(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)
	admin := performLogin(t, client, adminUsername, adminPassword)
	target, err := client.PasswordGrant(t.Context(), adminUsername, adminPassword)
	require.NoError(t, err)

	other := authsdk.NewSDKClient(baseURL, "some-other-client")
	require.NoError(t, other.RevokeToken(t.Context(), target.AccessToken, "access_token"))
	require.NoError(t, other.RevokeToken(t.Context(), target.RefreshToken, "refresh_token"))

	resp, err := admin.Introspect(t.Context(), target.AccessToken, "")
	require.NoError(t, err)
	require.True(t, resp.Active)

	_, err = client.RefreshGrant(t.Context(), target.RefreshToken)
	require.NoError(t, err)
}
