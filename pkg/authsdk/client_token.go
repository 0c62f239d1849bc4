package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// PasswordGrant exchanges a username and password for a token pair.
func (c *SDKClient) PasswordGrant(ctx context.Context, username, password string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
		"client_id":  {c.ClientID},
	}

	return c.requestToken(ctx, data)
}

// RefreshGrant exchanges a refresh token for the next token pair. The
// refresh token is consumed by this call.
func (c *SDKClient) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.ClientID},
	}

	return c.requestToken(ctx, data)
}

// RevokeToken revokes an access or refresh token. hint may be empty,
// "access_token" or "refresh_token". Unknown tokens succeed.
func (c *SDKClient) RevokeToken(ctx context.Context, token, hint string) error {
	data := url.Values{
		"token":     {token},
		"client_id": {c.ClientID},
	}
	if hint != "" {
		data.Set("token_type_hint", hint)
	}

	resp, err := c.postForm(ctx, "/v1/oauth2/revoke", "", data)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusOK)
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	resp, err := c.postForm(ctx, "/v1/oauth2/token", "", data)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
