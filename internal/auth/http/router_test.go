package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	authhttp "github.com/aussiebroadwan/tollgate/internal/auth/http"
	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/aussiebroadwan/tollgate/pkg/authsdk"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testClient   = "web"
	testPassword = "correct horse battery"
)

type testServer struct {
	router     *authhttp.Router
	identities *service.IdentityService
	now        time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations(ctx))

	km, err := jwtx.NewKeyManager(ctx, jwtx.KeyManagerOptions{
		Store:            jwtx.NewMemoryKeyStore(),
		Algorithm:        jwtx.AlgorithmEdDSA,
		RotationInterval: 24 * time.Hour,
		GracePeriod:      48 * time.Hour,
		Now:              clock,
	})
	require.NoError(t, err)

	hasher, err := cryptox.NewHasher(cryptox.Params{Memory: 64, Time: 1, Parallelism: 1}, nil)
	require.NoError(t, err)
	creds, err := service.NewCredentialService(s, hasher, clock)
	require.NoError(t, err)

	list := revocation.NewSQL(s)
	tokens := service.NewTokenService(s, km, creds, list, service.TokenConfig{
		Issuer:             "https://auth.tollgate.test",
		Audience:           []string{"game"},
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         24 * time.Hour,
		RefreshMaxLifetime: 72 * time.Hour,
		Now:                clock,
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	identities := service.NewIdentityService(s, hasher, clock)
	hk := service.NewHousekeepingService(s, list, nil, km, logger, 0)
	hk.Now = clock

	r := authhttp.NewRouter(km, "test", s, list, logger)
	r.TokenService = tokens
	r.RevocationService = service.NewRevocationService(s, tokens, list, km)
	r.KeyRotationService = service.NewKeyRotationService(km, clock)
	r.IdentityService = identities
	r.HousekeepingService = hk
	r.ApplyRoutes()

	return &testServer{
		router:     r,
		identities: identities,
		now:        now,
	}
}

func (ts *testServer) createIdentity(t *testing.T, username, role string) domain.Identity {
	t.Helper()
	identity, err := ts.identities.CreateIdentity(context.Background(), username, testPassword, role)
	require.NoError(t, err)
	return identity
}

// do sends a request from ip through the full router.
func (ts *testServer) do(t *testing.T, method, path, ip, bearer string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("X-Forwarded-For", ip)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T, username string) authsdk.TokenResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.0.0.1", "", url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {testPassword},
		"client_id":  {testClient},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[authsdk.TokenResponse](t, rec)
}

// chainOf reads the refresh chain id from the sid claim of an access token.
func chainOf(t *testing.T, accessToken string) string {
	t.Helper()
	var claims jwtx.Claims
	_, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims)
	require.NoError(t, err)
	require.NotEmpty(t, claims.SID)
	return claims.SID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestTokenEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createIdentity(t, "alice", domain.RolePlayer)

	t.Run("password grant", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.0.0.1", "", url.Values{
			"grant_type": {"password"},
			"username":   {"alice"},
			"password":   {testPassword},
			"client_id":  {testClient},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		resp := decode[authsdk.TokenResponse](t, rec)
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)
		require.Equal(t, "Bearer", resp.TokenType)
		require.Equal(t, 900, resp.ExpiresIn)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.0.0.2", "", url.Values{
			"grant_type": {"password"},
			"username":   {"alice"},
			"password":   {"nope"},
			"client_id":  {testClient},
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_grant", decode[authsdk.ErrorResponse](t, rec).Error)
	})

	t.Run("unknown user looks the same", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.0.0.3", "", url.Values{
			"grant_type": {"password"},
			"username":   {"mallory"},
			"password":   {testPassword},
			"client_id":  {testClient},
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid credentials", decode[authsdk.ErrorResponse](t, rec).ErrorDescription)
	})

	t.Run("unsupported grant", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.0.0.4", "", url.Values{
			"grant_type": {"client_credentials"},
			"client_id":  {testClient},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "unsupported_grant_type", decode[authsdk.ErrorResponse](t, rec).Error)
	})

	t.Run("missing client", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.0.0.5", "", url.Values{
			"grant_type": {"password"},
			"username":   {"alice"},
			"password":   {testPassword},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_request", decode[authsdk.ErrorResponse](t, rec).Error)
	})

	t.Run("json body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/oauth2/token", strings.NewReader(`{"grant_type":"password"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", "10.0.0.6")
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTokenEndpoint_RefreshReuse(t *testing.T) {
	ts := newTestServer(t)
	ts.createIdentity(t, "alice", domain.RolePlayer)
	pair := ts.login(t, "alice")

	refresh := func(token, ip string) *httptest.ResponseRecorder {
		return ts.do(t, http.MethodPost, "/v1/oauth2/token", ip, "", url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
			"client_id":     {testClient},
		})
	}

	rec := refresh(pair.RefreshToken, "10.1.0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	next := decode[authsdk.TokenResponse](t, rec)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// Replaying the old token fails and takes the new one down with it.
	rec = refresh(pair.RefreshToken, "10.1.0.2")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_grant", decode[authsdk.ErrorResponse](t, rec).Error)

	rec = refresh(next.RefreshToken, "10.1.0.3")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntrospectEndpoint(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.createIdentity(t, "root", domain.RoleAdmin)
	player := ts.createIdentity(t, "alice", domain.RolePlayer)

	adminTokens := ts.login(t, "root")
	playerTokens := ts.login(t, "alice")

	form := url.Values{"token": {playerTokens.AccessToken}}

	t.Run("no bearer", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.2.0.1", "", form)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("player forbidden", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.2.0.1", playerTokens.AccessToken, form)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("active access token", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.2.0.1", adminTokens.AccessToken, form)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[authsdk.IntrospectionResponse](t, rec)
		require.True(t, resp.Active)
		require.Equal(t, player.ID, resp.Sub)
		require.Equal(t, ts.now.Unix(), resp.Iat)
		require.Equal(t, ts.now.Add(15*time.Minute).Unix(), resp.Exp)
	})

	t.Run("garbage is inactive", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.2.0.1", adminTokens.AccessToken,
			url.Values{"token": {"not-a-token"}})
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"active":false}`, rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.2.0.1", adminTokens.AccessToken, url.Values{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	require.NotEmpty(t, admin.ID)
}

func TestRevokeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createIdentity(t, "root", domain.RoleAdmin)
	ts.createIdentity(t, "alice", domain.RolePlayer)
	adminTokens := ts.login(t, "root")
	playerTokens := ts.login(t, "alice")

	refresh := func(t *testing.T, token string) int {
		t.Helper()
		return ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.3.0.9", "", url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
			"client_id":     {testClient},
		}).Code
	}

	t.Run("unknown token is ok", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.1", "", url.Values{
			"token":     {"whatever"},
			"client_id": {testClient},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{}`, rec.Body.String())
	})

	t.Run("empty request", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.1", "", url.Values{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("client_id is required with a token", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.1", "", url.Values{"token": {playerTokens.AccessToken}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("another client cannot revoke the token", func(t *testing.T) {
		for _, token := range []string{playerTokens.AccessToken, playerTokens.RefreshToken} {
			rec := ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.2", "", url.Values{
				"token":     {token},
				"client_id": {"intruder"},
			})
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.3.0.2", adminTokens.AccessToken,
			url.Values{"token": {playerTokens.AccessToken}})
		require.True(t, decode[authsdk.IntrospectionResponse](t, rec).Active)
		rec = ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.3.0.2", adminTokens.AccessToken,
			url.Values{"token": {playerTokens.RefreshToken}, "token_type_hint": {"refresh_token"}})
		require.True(t, decode[authsdk.IntrospectionResponse](t, rec).Active)
	})

	t.Run("chain revocation needs an admin", func(t *testing.T) {
		victim := ts.login(t, "alice")
		form := url.Values{"chain_id": {chainOf(t, victim.AccessToken)}}

		rec := ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.3", "", form)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_token", decode[authsdk.ErrorResponse](t, rec).Error)

		rec = ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.3", "not-a-jwt", form)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.3", playerTokens.AccessToken, form)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "insufficient_scope", decode[authsdk.ErrorResponse](t, rec).Error)

		// None of the rejected attempts touched the chain.
		require.Equal(t, http.StatusOK, refresh(t, victim.RefreshToken))
	})

	t.Run("admin revokes a chain by id", func(t *testing.T) {
		victim := ts.login(t, "alice")
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.4", adminTokens.AccessToken,
			url.Values{"chain_id": {chainOf(t, victim.AccessToken)}, "reason": {"support ticket"}})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, http.StatusBadRequest, refresh(t, victim.RefreshToken))
	})

	t.Run("revoked access token stops authenticating", func(t *testing.T) {
		form := url.Values{
			"token":           {playerTokens.AccessToken},
			"token_type_hint": {"access_token"},
			"client_id":       {testClient},
		}
		for range 2 {
			rec := ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.5", "", form)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.3.0.5", adminTokens.AccessToken,
			url.Values{"token": {playerTokens.AccessToken}})
		require.Equal(t, http.StatusOK, rec.Code)
		require.False(t, decode[authsdk.IntrospectionResponse](t, rec).Active)
	})

	t.Run("revoked refresh token cannot be exchanged", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.3.0.6", "", url.Values{
			"token":     {playerTokens.RefreshToken},
			"client_id": {testClient},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, http.StatusBadRequest, refresh(t, playerTokens.RefreshToken))
	})
}

func TestJWKSEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/.well-known/jwks.json", "10.4.0.1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

	jwks := decode[authsdk.JWKSResponse](t, rec)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.NotEmpty(t, jwks.Keys[0].Kid)
}

func TestKeyEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createIdentity(t, "root", domain.RoleAdmin)
	admin := ts.login(t, "root").AccessToken

	rec := ts.do(t, http.MethodGet, "/v1/keys", "10.5.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	keys := decode[authsdk.ListKeysResponse](t, rec).Keys
	require.Len(t, keys, 1)
	original := keys[0].Kid

	rec = ts.do(t, http.MethodPost, "/v1/keys/"+original+"/revoke", "10.5.0.1", admin, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/keys/rotate", "10.5.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[authsdk.SigningKeyInfo](t, rec)
	require.NotEqual(t, original, active.Kid)
	require.Equal(t, "active", active.State)

	// The admin token was signed by the retired key and still verifies.
	rec = ts.do(t, http.MethodGet, "/v1/keys", "10.5.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[authsdk.ListKeysResponse](t, rec).Keys, 2)

	rec = ts.do(t, http.MethodPost, "/v1/keys/does-not-exist/revoke", "10.5.0.1", admin, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Log in again so the next call carries a token from the new key.
	fresh := ts.login(t, "root").AccessToken
	rec = ts.do(t, http.MethodPost, "/v1/keys/"+original+"/revoke", "10.5.0.1", fresh, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Tokens signed by the revoked key are rejected outright.
	rec = ts.do(t, http.MethodGet, "/v1/keys", "10.5.0.1", admin, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubjectAndStatsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createIdentity(t, "root", domain.RoleAdmin)
	player := ts.createIdentity(t, "alice", domain.RolePlayer)
	admin := ts.login(t, "root").AccessToken
	playerTokens := ts.login(t, "alice")

	rec := ts.do(t, http.MethodGet, "/v1/admin/stats", "10.6.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[authsdk.StatsResponse](t, rec)
	require.Equal(t, int64(2), stats.ActiveChains)
	require.Equal(t, int64(2), stats.Identities)
	require.Equal(t, 1, stats.Keys["active"])

	req := httptest.NewRequest(http.MethodPost, "/v1/subjects/"+player.ID+"/revoke", strings.NewReader(`{"reason":"banned"}`))
	req.Header.Set("Authorization", "Bearer "+admin)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[authsdk.RevokeSubjectResponse](t, rec)
	require.Equal(t, player.ID, resp.Subject)
	require.Equal(t, 1, resp.ChainsRevoked)

	rec = ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.6.0.1", admin, url.Values{"token": {playerTokens.AccessToken}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decode[authsdk.IntrospectionResponse](t, rec).Active)

	rec = ts.do(t, http.MethodGet, "/v1/admin/stats", "10.6.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats = decode[authsdk.StatsResponse](t, rec)
	require.Equal(t, int64(1), stats.ActiveChains)
	require.Equal(t, int64(1), stats.RevokedChains)
}

func TestSubjectChainsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createIdentity(t, "root", domain.RoleAdmin)
	player := ts.createIdentity(t, "alice", domain.RolePlayer)
	admin := ts.login(t, "root").AccessToken
	first := ts.login(t, "alice")
	second := ts.login(t, "alice")

	path := "/v1/subjects/" + player.ID + "/chains"
	rec := ts.do(t, http.MethodGet, path, "10.8.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[authsdk.SubjectChainsResponse](t, rec)
	require.Equal(t, player.ID, resp.Subject)
	require.ElementsMatch(t, []string{chainOf(t, first.AccessToken), chainOf(t, second.AccessToken)}, resp.Chains)

	rec = ts.do(t, http.MethodPost, "/v1/oauth2/revoke", "10.8.0.1", admin, url.Values{"chain_id": {chainOf(t, first.AccessToken)}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, path, "10.8.0.1", admin, nil)
	require.Equal(t, []string{chainOf(t, second.AccessToken)}, decode[authsdk.SubjectChainsResponse](t, rec).Chains)

	rec = ts.do(t, http.MethodGet, "/v1/subjects/nobody/chains", "10.8.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"sub":"nobody","chains":[]}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, path, "10.8.0.1", second.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = ts.do(t, http.MethodGet, path, "10.8.0.1", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDisableAndEnableEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createIdentity(t, "root", domain.RoleAdmin)
	player := ts.createIdentity(t, "alice", domain.RolePlayer)
	admin := ts.login(t, "root").AccessToken
	playerTokens := ts.login(t, "alice")

	rec := ts.do(t, http.MethodPost, "/v1/subjects/"+player.ID+"/disable", "10.9.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, decode[authsdk.RevokeSubjectResponse](t, rec).ChainsRevoked)

	rec = ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.9.0.1", admin, url.Values{"token": {playerTokens.AccessToken}})
	require.False(t, decode[authsdk.IntrospectionResponse](t, rec).Active)

	login := url.Values{
		"grant_type": {"password"},
		"username":   {"alice"},
		"password":   {testPassword},
		"client_id":  {testClient},
	}
	rec = ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.9.0.2", "", login)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/subjects/"+player.ID+"/enable", "10.9.0.1", admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/oauth2/token", "10.9.0.2", "", login)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/subjects/nobody/disable", "10.9.0.1", admin, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodPost, "/v1/subjects/nobody/enable", "10.9.0.1", admin, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanupEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createIdentity(t, "root", domain.RoleAdmin)
	ts.createIdentity(t, "alice", domain.RolePlayer)
	admin := ts.login(t, "root").AccessToken
	playerTokens := ts.login(t, "alice")

	rec := ts.do(t, http.MethodPost, "/v1/admin/cleanup", "10.10.0.1", playerTokens.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/admin/cleanup", "10.10.0.1", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[authsdk.CleanupResponse](t, rec)
	require.Zero(t, report.Failures)
	require.Zero(t, report.RefreshTokens)
	require.Zero(t, report.Revocations)

	// Live refresh tokens survive a cleanup pass.
	rec = ts.do(t, http.MethodPost, "/v1/oauth2/introspect", "10.10.0.1", admin,
		url.Values{"token": {playerTokens.RefreshToken}, "token_type_hint": {"refresh_token"}})
	require.True(t, decode[authsdk.IntrospectionResponse](t, rec).Active)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/livez", "10.7.0.1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[authsdk.HealthResponse](t, rec).Status)

	rec = ts.do(t, http.MethodGet, "/readyz", "10.7.0.1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[authsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)
	require.Equal(t, "ok", health.Checks.Revocations)
}
