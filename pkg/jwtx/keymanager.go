package jwtx

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
)

var (
	// ErrKeyUnavailable means no active signing key could be loaded or
	// created. The service must not serve traffic without one.
	ErrKeyUnavailable = errors.New("jwtx: signing key unavailable")

	// ErrRotationFailed means a rotation attempt could not generate or
	// persist a key. The previous active key stays in service.
	ErrRotationFailed = errors.New("jwtx: key rotation failed")

	// ErrActiveKey is returned when trying to revoke the active key.
	ErrActiveKey = errors.New("jwtx: cannot revoke the active key")

	ErrNoKey = errors.New("jwtx: key not found")
)

const (
	DefaultRotationInterval = 24 * time.Hour
	DefaultGracePeriod      = 48 * time.Hour
	DefaultRSABits          = 2048
)

// SigningKeyRecord is a signing key as persisted by a KeyStore, with the
// private key in plaintext PEM. Stores encrypt it at rest.
type SigningKeyRecord struct {
	Kid           string
	Algorithm     string
	State         KeyState
	PrivateKeyPEM []byte
	CreatedAt     time.Time
	RetiredAt     *time.Time
	VerifyUntil   *time.Time
}

// KeyStore is the durable storage behind a KeyManager.
type KeyStore interface {
	// LoadSigningKeys returns active and retired keys.
	LoadSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// SaveRotation inserts next as the active key and, in the same
	// transaction, retires every previously active key with verifyUntil.
	SaveRotation(ctx context.Context, next SigningKeyRecord, retiredAt, verifyUntil time.Time) error

	// RevokeSigningKey moves a key to the revoked state.
	RevokeSigningKey(ctx context.Context, kid string, at time.Time) error
}

// KeyManagerOptions configures a KeyManager.
type KeyManagerOptions struct {
	Store KeyStore

	// Algorithm for newly generated keys. Loaded keys keep their own.
	Algorithm string

	// RSABits for RS256 keys. Defaults to 2048.
	RSABits int

	// RotationInterval is the maximum age of the active key.
	RotationInterval time.Duration

	// GracePeriod is how long a retired key keeps verifying. It must be at
	// least RotationInterval so a token minted just before a rotation
	// outlives its own expiry under the retired key.
	GracePeriod time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// KeyManager owns the process-wide signing keys. Readers load an immutable
// KeySet snapshot with a single atomic read; rotation builds a new snapshot
// and swaps it in. rotateMu only serialises writers, so key generation never
// blocks issuance or verification.
type KeyManager struct {
	opts     KeyManagerOptions
	current  atomic.Pointer[KeySet]
	rotateMu sync.Mutex
}

// NewKeyManager loads persisted keys and rotates when there is no active key
// or the active key is older than the rotation interval. Any failure is
// reported as ErrKeyUnavailable.
func NewKeyManager(ctx context.Context, opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrKeyUnavailable)
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmEdDSA
	}
	if opts.RSABits == 0 {
		opts.RSABits = DefaultRSABits
	}
	if opts.RotationInterval <= 0 {
		opts.RotationInterval = DefaultRotationInterval
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GracePeriod < opts.RotationInterval {
		return nil, fmt.Errorf("%w: grace period %s shorter than rotation interval %s",
			ErrKeyUnavailable, opts.GracePeriod, opts.RotationInterval)
	}
	if !slices.Contains(SupportedAlgorithms, opts.Algorithm) {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrKeyUnavailable, opts.Algorithm)
	}

	km := &KeyManager{opts: opts}
	if err := km.Reload(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	if _, err := km.RotateIfDue(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	return km, nil
}

// Reload rebuilds the snapshot from the store. Instances sharing a database
// call this to pick up rotations performed elsewhere.
//
// The load runs under rotateMu: a snapshot built from records read before a
// local Rotate must never replace the one that Rotate published.
func (km *KeyManager) Reload(ctx context.Context) error {
	km.rotateMu.Lock()
	defer km.rotateMu.Unlock()

	records, err := km.opts.Store.LoadSigningKeys(ctx)
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}

	set, err := buildKeySet(records, km.opts.GracePeriod)
	if err != nil {
		return err
	}

	km.current.Store(set)
	return nil
}

// buildKeySet turns persisted records into a snapshot. If the store holds
// more than one active key the newest wins and the rest are treated as
// retired at the moment it was created.
func buildKeySet(records []SigningKeyRecord, grace time.Duration) (*KeySet, error) {
	set := &KeySet{keys: make(map[string]VerificationKey, len(records))}

	var newest *SigningKeyRecord
	for i := range records {
		r := &records[i]
		if r.State == KeyActive && (newest == nil || r.CreatedAt.After(newest.CreatedAt)) {
			newest = r
		}
	}

	for _, r := range records {
		if r.State == KeyRevoked {
			continue
		}

		s, err := NewSigner(r.Algorithm, r.Kid, r.PrivateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", r.Kid, err)
		}

		vk := VerificationKey{
			Kid:       r.Kid,
			Algorithm: r.Algorithm,
			State:     r.State,
			Public:    s.Public(),
			JWK:       s.PublicJWK(),
			CreatedAt: r.CreatedAt,
		}
		if r.VerifyUntil != nil {
			vk.VerifyUntil = *r.VerifyUntil
		}

		switch {
		case newest != nil && r.Kid == newest.Kid:
			set.signer = s
			vk.VerifyUntil = time.Time{}
		case r.State == KeyActive:
			vk.State = KeyRetired
			vk.VerifyUntil = newest.CreatedAt.Add(grace)
		}
		set.keys[r.Kid] = vk
	}
	return set, nil
}

// VerificationKeys returns the current snapshot: the active key plus retired
// keys. Callers check VerifyUntil through KeySet.Lookup or KeySet.Keys.
func (km *KeyManager) VerificationKeys() *KeySet {
	return km.current.Load()
}

// CurrentSigner returns the single active signing key.
func (km *KeyManager) CurrentSigner() (Signer, error) {
	s := km.current.Load().Signer()
	if s == nil {
		return nil, ErrKeyUnavailable
	}
	return s, nil
}

// PublicJWKS returns the keys that currently verify, for publication.
func (km *KeyManager) PublicJWKS() JWKS {
	return km.current.Load().JWKS(km.opts.Now())
}

// Algorithm returns the algorithm used for new keys.
func (km *KeyManager) Algorithm() string { return km.opts.Algorithm }

// RotationInterval returns the configured maximum active key age.
func (km *KeyManager) RotationInterval() time.Duration { return km.opts.RotationInterval }

// IsReady reports whether an active signing key is loaded.
func (km *KeyManager) IsReady() bool {
	return km.current.Load().Signer() != nil
}

// ActiveKeyAge returns how long the active key has been in service.
func (km *KeyManager) ActiveKeyAge() time.Duration {
	set := km.current.Load()
	s := set.Signer()
	if s == nil {
		return 0
	}
	return km.opts.Now().Sub(set.keys[s.KID()].CreatedAt)
}

// RotateIfDue rotates when there is no active key or the active key has
// reached the rotation interval.
func (km *KeyManager) RotateIfDue(ctx context.Context) (bool, error) {
	if km.IsReady() && km.ActiveKeyAge() < km.opts.RotationInterval {
		return false, nil
	}
	if err := km.Rotate(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Rotate generates a new active key, persists it together with the
// retirement of the previous one, then publishes the new snapshot.
func (km *KeyManager) Rotate(ctx context.Context) error {
	kid, err := newKeyID()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRotationFailed, err)
	}

	pemData, signer, err := generateKey(km.opts.Algorithm, kid, km.opts.RSABits)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRotationFailed, err)
	}

	km.rotateMu.Lock()
	defer km.rotateMu.Unlock()

	now := km.opts.Now()
	verifyUntil := now.Add(km.opts.GracePeriod)
	record := SigningKeyRecord{
		Kid:           kid,
		Algorithm:     signer.Alg(),
		State:         KeyActive,
		PrivateKeyPEM: pemData,
		CreatedAt:     now,
	}

	if err := km.opts.Store.SaveRotation(ctx, record, now, verifyUntil); err != nil {
		return fmt.Errorf("%w: persist key %s: %v", ErrRotationFailed, kid, err)
	}

	km.current.Store(km.current.Load().withActive(signer, now, verifyUntil))
	return nil
}

// RevokeKey takes a retired key out of verification immediately.
func (km *KeyManager) RevokeKey(ctx context.Context, kid string) error {
	km.rotateMu.Lock()
	defer km.rotateMu.Unlock()

	cur := km.current.Load()
	if s := cur.Signer(); s != nil && s.KID() == kid {
		return ErrActiveKey
	}

	if err := km.opts.Store.RevokeSigningKey(ctx, kid, km.opts.Now()); err != nil {
		return err
	}

	km.current.Store(cur.without(kid))
	return nil
}

// Purge drops keys past their grace window from the snapshot and returns
// how many were removed.
func (km *KeyManager) Purge() int {
	km.rotateMu.Lock()
	defer km.rotateMu.Unlock()

	next, removed := km.current.Load().pruned(km.opts.Now())
	if removed > 0 {
		km.current.Store(next)
	}
	return removed
}

// HealthCheck signs a short-lived token with the active key and verifies it
// through the current snapshot.
func (km *KeyManager) HealthCheck() error {
	signer, err := km.CurrentSigner()
	if err != nil {
		return err
	}

	const selfCheckIssuer = "tollgate-healthcheck"
	token, err := signer.Sign(NewAccessClaims(AccessClaimsParams{
		Subject: "healthcheck",
		Issuer:  selfCheckIssuer,
		TTL:     time.Minute,
		Now:     km.opts.Now(),
	}))
	if err != nil {
		return fmt.Errorf("jwtx: self-check sign: %w", err)
	}

	v := NewVerifier(km, VerifyOptions{Issuer: selfCheckIssuer, Now: km.opts.Now})
	if _, err := v.Verify(token); err != nil {
		return fmt.Errorf("jwtx: self-check verify: %w", err)
	}
	return nil
}

// generateKey creates a new key pair and returns the PEM alongside a signer.
func generateKey(algorithm, kid string, rsaBits int) ([]byte, Signer, error) {
	var gen func() ([]byte, error)
	switch algorithm {
	case AlgorithmEdDSA:
		gen = cryptox.GenerateEd25519Key
	case AlgorithmES256:
		gen = cryptox.GenerateES256Key
	case AlgorithmRS256:
		gen = func() ([]byte, error) { return cryptox.GenerateRSAKey(rsaBits) }
	default:
		return nil, nil, fmt.Errorf("unsupported algorithm %q (supported: EdDSA, ES256, RS256)", algorithm)
	}

	pemData, err := gen()
	if err != nil {
		return nil, nil, err
	}
	signer, err := NewSigner(algorithm, kid, pemData)
	if err != nil {
		return nil, nil, err
	}
	return pemData, signer, nil
}

// newKeyID creates a random key identifier: "tg-" + 128-bit token.
func newKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("generate key ID: %w", err)
	}
	return "tg-" + token, nil
}
