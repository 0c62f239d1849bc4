package jwtx

import (
	"crypto"
	"fmt"
	"slices"
	"time"
)

// KeyState is the lifecycle state of a signing key.
type KeyState string

const (
	KeyActive  KeyState = "active"
	KeyRetired KeyState = "retired"
	KeyRevoked KeyState = "revoked"
)

// VerificationKey is the public half of a signing key as seen by verifiers.
type VerificationKey struct {
	Kid       string
	Algorithm string
	State     KeyState
	Public    crypto.PublicKey
	JWK       JWK
	CreatedAt time.Time

	// VerifyUntil bounds how long a retired key is accepted. Zero means
	// no bound (the active key, or keys imported from a remote JWKS).
	VerifyUntil time.Time
}

// ValidAt reports whether tokens signed by this key are accepted at now.
func (k VerificationKey) ValidAt(now time.Time) bool {
	if k.State == KeyRevoked {
		return false
	}
	return k.VerifyUntil.IsZero() || now.Before(k.VerifyUntil)
}

// KeySet is an immutable snapshot of the signing key and the verification
// keys. Rotation builds a new KeySet and swaps it in whole; holders of an
// older snapshot keep a consistent view until their next lookup.
type KeySet struct {
	signer Signer
	keys   map[string]VerificationKey
}

// NewKeySetFromJWKS builds a verification-only KeySet from a published JWKS.
// Resource servers use this with keys fetched from the JWKS endpoint.
func NewKeySetFromJWKS(jwks JWKS) (*KeySet, error) {
	keys := make(map[string]VerificationKey, len(jwks.Keys))
	for _, j := range jwks.Keys {
		if j.Kid == "" {
			return nil, fmt.Errorf("jwtx: JWK without kid")
		}
		pub, err := j.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("jwtx: key %s: %w", j.Kid, err)
		}
		keys[j.Kid] = VerificationKey{
			Kid:       j.Kid,
			Algorithm: j.Alg,
			State:     KeyActive,
			Public:    pub,
			JWK:       j,
		}
	}
	return &KeySet{keys: keys}, nil
}

// VerificationKeys lets a *KeySet act as its own KeySource.
func (k *KeySet) VerificationKeys() *KeySet { return k }

// Signer returns the active signer, or nil for a verification-only set.
func (k *KeySet) Signer() Signer {
	if k == nil {
		return nil
	}
	return k.signer
}

// Lookup returns the verification key for kid if it is usable at now.
func (k *KeySet) Lookup(kid string, now time.Time) (VerificationKey, error) {
	if k == nil {
		return VerificationKey{}, ErrNoKey
	}
	vk, ok := k.keys[kid]
	if !ok || !vk.ValidAt(now) {
		return VerificationKey{}, ErrNoKey
	}
	return vk, nil
}

// Keys returns every key usable at now: active first, then newest first.
func (k *KeySet) Keys(now time.Time) []VerificationKey {
	if k == nil {
		return nil
	}
	out := make([]VerificationKey, 0, len(k.keys))
	for _, vk := range k.keys {
		if vk.ValidAt(now) {
			out = append(out, vk)
		}
	}
	slices.SortFunc(out, func(a, b VerificationKey) int {
		if (a.State == KeyActive) != (b.State == KeyActive) {
			if a.State == KeyActive {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// JWKS returns the publishable form of Keys(now).
func (k *KeySet) JWKS(now time.Time) JWKS {
	keys := k.Keys(now)
	out := JWKS{Keys: make([]JWK, 0, len(keys))}
	for _, vk := range keys {
		out.Keys = append(out.Keys, vk.JWK)
	}
	return out
}

// Len counts the keys held, including ones past their grace window that
// have not been purged yet.
func (k *KeySet) Len() int {
	if k == nil {
		return 0
	}
	return len(k.keys)
}

func (k *KeySet) clone() *KeySet {
	next := &KeySet{keys: make(map[string]VerificationKey, k.Len()+1)}
	if k != nil {
		next.signer = k.signer
		for kid, vk := range k.keys {
			next.keys[kid] = vk
		}
	}
	return next
}

// withActive returns a copy where s is the active key and the previous
// active key is retired until verifyUntil.
func (k *KeySet) withActive(s Signer, createdAt, verifyUntil time.Time) *KeySet {
	next := k.clone()
	for kid, vk := range next.keys {
		if vk.State == KeyActive {
			vk.State = KeyRetired
			vk.VerifyUntil = verifyUntil
			next.keys[kid] = vk
		}
	}
	next.signer = s
	next.keys[s.KID()] = VerificationKey{
		Kid:       s.KID(),
		Algorithm: s.Alg(),
		State:     KeyActive,
		Public:    s.Public(),
		JWK:       s.PublicJWK(),
		CreatedAt: createdAt,
	}
	return next
}

// without returns a copy with kid removed.
func (k *KeySet) without(kid string) *KeySet {
	next := k.clone()
	delete(next.keys, kid)
	return next
}

// pruned returns a copy without keys unusable at now, and whether anything
// was dropped.
func (k *KeySet) pruned(now time.Time) (*KeySet, int) {
	next := k.clone()
	removed := 0
	for kid, vk := range next.keys {
		if !vk.ValidAt(now) {
			delete(next.keys, kid)
			removed++
		}
	}
	return next, removed
}
