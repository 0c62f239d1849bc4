package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Introspect reports whether token is active (RFC 7662). hint may be
// empty, "access_token" or "refresh_token".
// Requires: admin role
func (s *Session) Introspect(ctx context.Context, token, hint string) (*IntrospectionResponse, error) {
	bearer, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	data := url.Values{"token": {token}}
	if hint != "" {
		data.Set("token_type_hint", hint)
	}

	resp, err := s.client.postForm(ctx, "/v1/oauth2/introspect", bearer, data)
	if err != nil {
		return nil, err
	}

	var res IntrospectionResponse
	if err := decodeJSON(resp, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// RotateKey generates a new active signing key. The previous key keeps
// verifying through its grace window.
// Requires: admin role
func (s *Session) RotateKey(ctx context.Context) (*SigningKeyInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/keys/rotate", nil)
	if err != nil {
		return nil, err
	}

	var key SigningKeyInfo
	if err := decodeJSON(resp, &key, http.StatusOK); err != nil {
		return nil, err
	}
	return &key, nil
}

// ListKeys returns the keys that currently verify tokens, active first.
// Requires: admin role
func (s *Session) ListKeys(ctx context.Context) ([]SigningKeyInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/keys", nil)
	if err != nil {
		return nil, err
	}

	var list ListKeysResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return list.Keys, nil
}

// RevokeKey takes a retired key out of verification. Tokens it signed stop
// verifying immediately.
// Requires: admin role
func (s *Session) RevokeKey(ctx context.Context, kid string) error {
	path := fmt.Sprintf("/v1/keys/%s/revoke", url.PathEscape(kid))

	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// RevokeSubject revokes every refresh chain and every access token issued
// so far to subject.
// Requires: admin role
func (s *Session) RevokeSubject(ctx context.Context, subject, reason string) (*RevokeSubjectResponse, error) {
	body, err := json.Marshal(RevokeSubjectRequest{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := fmt.Sprintf("/v1/subjects/%s/revoke", url.PathEscape(subject))
	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var out RevokeSubjectResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSubjectChains returns the refresh chains of subject that have not been
// revoked.
// Requires: admin role
func (s *Session) ListSubjectChains(ctx context.Context, subject string) ([]string, error) {
	path := fmt.Sprintf("/v1/subjects/%s/chains", url.PathEscape(subject))
	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out SubjectChainsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Chains, nil
}

// DisableSubject stops subject from logging in or refreshing and revokes
// every token issued to it so far.
// Requires: admin role
func (s *Session) DisableSubject(ctx context.Context, subject string) (*RevokeSubjectResponse, error) {
	path := fmt.Sprintf("/v1/subjects/%s/disable", url.PathEscape(subject))
	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	var out RevokeSubjectResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnableSubject lets a disabled subject log in again.
// Requires: admin role
func (s *Session) EnableSubject(ctx context.Context, subject string) error {
	path := fmt.Sprintf("/v1/subjects/%s/enable", url.PathEscape(subject))
	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// Cleanup runs a housekeeping pass now and reports what it removed.
// Requires: admin role
func (s *Session) Cleanup(ctx context.Context) (*CleanupResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/admin/cleanup", nil)
	if err != nil {
		return nil, err
	}

	var out CleanupResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns token and key counters.
// Requires: admin role
func (s *Session) Stats(ctx context.Context) (*StatsResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/admin/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats StatsResponse
	if err := decodeJSON(resp, &stats, http.StatusOK); err != nil {
		return nil, err
	}
	return &stats, nil
}

// doAuthRequest sends a request with the session's access token and an
// optional JSON body.
func (s *Session) doAuthRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	var headers map[string]string
	if body != nil {
		headers = map[string]string{"Content-Type": "application/json"}
	}
	return s.client.doRequest(ctx, method, path, token, bytes.NewReader(body), headers)
}
