package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshSkew refreshes the access token this long before it expires.
const refreshSkew = 30 * time.Second

var errNoRefreshToken = errors.New("authsdk: access token expired and no refresh token available")

type sessionTokens struct {
	access    string
	refresh   string
	expiresAt time.Time
}

// Session holds a token pair and refreshes the access token on demand.
// A refresh token is single use, so concurrent callers share one refresh.
type Session struct {
	client *SDKClient
	flight singleflight.Group

	mu     sync.RWMutex
	tokens sessionTokens
}

func newSession(client *SDKClient, resp *TokenResponse) *Session {
	s := &Session{client: client}
	s.set(resp)
	return s
}

func (s *Session) set(resp *TokenResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = sessionTokens{
		access:    resp.AccessToken,
		refresh:   resp.RefreshToken,
		expiresAt: time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - refreshSkew),
	}
}

func (s *Session) current() sessionTokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// getValidToken returns the access token, refreshing it first when it is
// at or near expiry.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	if t := s.current(); time.Now().Before(t.expiresAt) {
		return t.access, nil
	}

	v, err, _ := s.flight.Do("refresh", func() (any, error) {
		// A refresh that finished just before this flight started already
		// replaced the pair.
		t := s.current()
		if time.Now().Before(t.expiresAt) {
			return t.access, nil
		}
		if t.refresh == "" {
			return nil, errNoRefreshToken
		}
		resp, err := s.client.RefreshGrant(ctx, t.refresh)
		if err != nil {
			return nil, fmt.Errorf("authsdk: refresh session: %w", err)
		}
		s.set(resp)
		return resp.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Revoke revokes the session's refresh chain. Access tokens minted from
// the chain stop introspecting as active.
func (s *Session) Revoke(ctx context.Context) error {
	rt := s.current().refresh
	if rt == "" {
		return errors.New("authsdk: no refresh token to revoke")
	}
	return s.client.RevokeToken(ctx, rt, "refresh_token")
}

// AccessToken returns the current access token without checking expiry.
func (s *Session) AccessToken() string { return s.current().access }

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string { return s.current().refresh }
