package jwtx

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// ErrBadJWK reports a JWK that does not describe a usable public key.
var ErrBadJWK = errors.New("jwtx: bad jwk")

// JWK is the public half of a signing key in RFC 7517 form. Only the
// members for Ed25519 (OKP), P-256 (EC) and RSA keys are modelled.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`

	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// JWKS is the document served at /.well-known/jwks.json.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

var b64 = base64.RawURLEncoding

// NewJWK describes pub as a signature key. Unsupported key types produce a
// JWK with only kid and alg set, which PublicKey rejects.
func NewJWK(kid, alg string, pub crypto.PublicKey) JWK {
	j := JWK{Use: "sig", Alg: alg, Kid: kid}
	switch k := pub.(type) {
	case ed25519.PublicKey:
		j.Kty, j.Crv = "OKP", "Ed25519"
		j.X = b64.EncodeToString(k)
	case *ecdsa.PublicKey:
		// Coordinates are fixed-width 32 bytes for P-256.
		var x, y [32]byte
		k.X.FillBytes(x[:])
		k.Y.FillBytes(y[:])
		j.Kty, j.Crv = "EC", "P-256"
		j.X, j.Y = b64.EncodeToString(x[:]), b64.EncodeToString(y[:])
	case *rsa.PublicKey:
		j.Kty = "RSA"
		j.N = b64.EncodeToString(k.N.Bytes())
		j.E = b64.EncodeToString(big.NewInt(int64(k.E)).Bytes())
	}
	return j
}

// PublicKey decodes the JWK back into a crypto public key.
func (j JWK) PublicKey() (crypto.PublicKey, error) {
	switch j.Kty {
	case "OKP":
		return j.ed25519Key()
	case "EC":
		return j.p256Key()
	case "RSA":
		return j.rsaKey()
	}
	return nil, fmt.Errorf("%w: kty %q", ErrBadJWK, j.Kty)
}

func (j JWK) ed25519Key() (crypto.PublicKey, error) {
	if j.Crv != "Ed25519" {
		return nil, fmt.Errorf("%w: OKP curve %q", ErrBadJWK, j.Crv)
	}
	x, err := b64.DecodeString(j.X)
	if err != nil || len(x) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: Ed25519 x", ErrBadJWK)
	}
	return ed25519.PublicKey(x), nil
}

func (j JWK) p256Key() (crypto.PublicKey, error) {
	if j.Crv != "P-256" {
		return nil, fmt.Errorf("%w: EC curve %q", ErrBadJWK, j.Crv)
	}
	x, errX := b64.DecodeString(j.X)
	y, errY := b64.DecodeString(j.Y)
	if errX != nil || errY != nil || len(x) != 32 || len(y) != 32 {
		return nil, fmt.Errorf("%w: P-256 coordinates", ErrBadJWK)
	}

	// Reject points that are not on the curve.
	point := append(append([]byte{4}, x...), y...)
	if _, err := ecdh.P256().NewPublicKey(point); err != nil {
		return nil, fmt.Errorf("%w: P-256 point: %v", ErrBadJWK, err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}, nil
}

func (j JWK) rsaKey() (crypto.PublicKey, error) {
	n, errN := b64.DecodeString(j.N)
	e, errE := b64.DecodeString(j.E)
	if errN != nil || errE != nil || len(n) == 0 || len(e) == 0 || len(e) > 4 {
		return nil, fmt.Errorf("%w: RSA modulus or exponent", ErrBadJWK)
	}
	exp := new(big.Int).SetBytes(e).Int64()
	if exp < 3 || exp%2 == 0 {
		return nil, fmt.Errorf("%w: RSA exponent %d", ErrBadJWK, exp)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp)}, nil
}
