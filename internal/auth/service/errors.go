package service

import "errors"

var (
	// ErrAuthenticationFailed covers unknown usernames, wrong passwords and
	// disabled identities alike.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrTokenInvalid is the only error callers see for a rejected access
	// token. The detailed reason is logged, never returned.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrRefreshReuseDetected is returned for any refresh token that cannot
	// be exchanged. The chain it belongs to has been revoked.
	ErrRefreshReuseDetected = errors.New("refresh token reuse detected")

	ErrInvalidRequest = errors.New("invalid request")
)
