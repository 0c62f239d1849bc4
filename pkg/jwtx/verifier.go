package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrAlgMismatch  = errors.New("jwtx: algorithm mismatch")
	ErrMissingKID   = errors.New("jwtx: missing kid")
	ErrUnknownKID   = errors.New("jwtx: unknown kid")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// KeySource hands out the current verification snapshot. *KeyManager and
// *KeySet both implement it.
type KeySource interface {
	VerificationKeys() *KeySet
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier struct {
	keys KeySource
	opts VerifyOptions
}

// NewVerifier creates a verifier that resolves keys through src on every call.
func NewVerifier(src KeySource, opts VerifyOptions) *Verifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Verifier{keys: src, opts: opts}
}

// Verify checks kid, algorithm, signature, exp/nbf, issuer and audience, in
// that order, against a single key snapshot.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	now := v.opts.Now()
	set := v.keys.VerificationKeys()

	parser := jwt.NewParser(
		jwt.WithValidMethods(SupportedAlgorithms),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(v.opts.Leeway),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrMissingKID
		}

		vk, err := set.Lookup(kid, now)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}
		if vk.Algorithm != t.Method.Alg() {
			return nil, ErrAlgMismatch
		}
		return vk.Public, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrInvalidClaim
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return nil, err
	}
	return claims, nil
}

// classify maps golang-jwt errors onto the package's sentinel errors.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrMissingKID), errors.Is(err, ErrUnknownKID), errors.Is(err, ErrAlgMismatch):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}

// KeyID returns the kid header of a token without verifying it.
func KeyID(tokenStr string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return "", ErrMissingKID
	}
	return kid, nil
}
