/*
Package authsdk is a client for the tollgate token service.

# Overview

An SDKClient talks to the public endpoints: the token endpoint, revocation,
the JWKS document and the health probes. A Session wraps a token pair and
refreshes the access token shortly before it expires.

	client := authsdk.NewSDKClient("https://auth.example.com", "web")

	session, err := client.AuthenticateWithPassword(ctx, "alice", password)
	if err != nil {
		var oauthErr *authsdk.OAuth2Error
		if errors.As(err, &oauthErr) && oauthErr.Code == authsdk.ErrorCodeInvalidGrant {
			// wrong username or password
		}
	}

# Refresh tokens

Refresh tokens are single use. Each refresh returns a new refresh token and
the previous one becomes invalid; presenting it again revokes the whole
chain and every later refresh fails with invalid_grant. A Session
serialises its refreshes so it never presents the same token twice.

# Admin operations

Sessions whose subject has the admin role can introspect tokens, rotate and
revoke signing keys, revoke every token of a subject and read token
statistics:

	res, err := session.Introspect(ctx, token, "")
	if err == nil && res.Active {
		fmt.Println(res.Sub, time.Unix(res.Exp, 0))
	}

# Verifying tokens locally

Resource servers can verify access tokens without calling the service by
fetching the JWKS and building a jwtx.KeySet:

	set, err := client.KeySet(ctx)
	verifier := jwtx.NewVerifier(set, jwtx.VerifyOptions{Issuer: issuer})

Local verification does not see revocations; use Introspect where that
matters.
*/
package authsdk
