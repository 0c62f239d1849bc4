//go:build integration

package auth_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestTamperedAccessToken verifies that modified tokens are rejected.
func TestTamperedAccessToken(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL, testClientID)
	admin := performLogin(t, client, adminUsername, adminPassword)

	parts := strings.Split(admin.AccessToken(), ".")
	require.Len(t, parts, 3)

	tests := map[string]string{
		"alg none":         base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`)) + "." + parts[1] + ".",
		"swapped payload":  parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"x","role":"admin"}`)) + "." + parts[2],
		"broken signature": parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2])),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			forged := client.NewSessionFromTokens(token, "", 3600)
			_, err := forged.ListKeys(t.Context())
			assertStatus(t, err, 401, "Forged token should be rejected")

			resp, err := admin.Introspect(t.Context(), token, "")
			require.NoError(t, err)
			require.False(t, resp.Active)
		})
	}
}
