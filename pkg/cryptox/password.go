package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	hashAlgorithm = "argon2id"
	hashVersion   = argon2.Version

	keyLength  = 32 // Length of the generated hash
	saltLength = 16 // Length of the salt

	// Upper bounds applied to parameters parsed from stored hashes so that a
	// tampered row cannot make a login allocate unbounded memory.
	maxMemory      = 1 << 21 // 2 GiB in KiB
	maxTime        = 64
	maxParallelism = 64
)

// ErrInvalidHash is returned when an encoded hash is not a PHC argon2id string.
var ErrInvalidHash = errors.New("cryptox: invalid password hash")

// idKey derives the argon2id key. Tests replace it to observe calls.
var idKey = argon2.IDKey

// fallbackSalt salts the derivation Verify runs for a hash it cannot parse.
var fallbackSalt = make([]byte, saltLength)

// Params are the Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
}

// DefaultParams follows the OWASP minimum for argon2id (19 MiB, t=2, p=1).
var DefaultParams = Params{
	Memory:      19 * 1024,
	Time:        2,
	Parallelism: 1,
}

// Validate checks the parameters are usable and within sane bounds.
func (p Params) Validate() error {
	switch {
	case p.Memory < 8*uint32(p.Parallelism) || p.Memory > maxMemory:
		return fmt.Errorf("cryptox: argon2 memory %d KiB out of range", p.Memory)
	case p.Time < 1 || p.Time > maxTime:
		return fmt.Errorf("cryptox: argon2 time %d out of range", p.Time)
	case p.Parallelism < 1 || p.Parallelism > maxParallelism:
		return fmt.Errorf("cryptox: argon2 parallelism %d out of range", p.Parallelism)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", p.Memory, p.Time, p.Parallelism)
}

// Hasher produces and checks self-describing argon2id hashes:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
//
// Hashes are always verified with the parameters embedded in them, so
// changing the Hasher's Params only affects newly produced hashes.
type Hasher struct {
	params Params
	pepper []byte
}

// NewHasher returns a Hasher for the given policy. A non-empty pepper is
// mixed into every password with HMAC-SHA256 before hashing.
func NewHasher(params Params, pepper []byte) (*Hasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: params, pepper: pepper}, nil
}

// Params returns the policy applied to new hashes.
func (h *Hasher) Params() Params { return h.params }

// Hash generates a PHC-format Argon2id hash string including salt and parameters.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	sum := idKey(h.secret(password), salt, h.params.Time, h.params.Memory, h.params.Parallelism, keyLength)

	return fmt.Sprintf("$%s$v=%d$%s$%s$%s",
		hashAlgorithm,
		hashVersion,
		h.params,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify reports whether password matches the encoded hash. Any parse
// failure is reported as a mismatch, after the same argon2id work a real
// hash with the Hasher's policy would cost.
func (h *Hasher) Verify(password, encoded string) bool {
	ph, err := parseHash(encoded)
	if err != nil {
		idKey(h.secret(password), fallbackSalt, h.params.Time, h.params.Memory, h.params.Parallelism, keyLength)
		return false
	}

	computed := idKey(
		h.secret(password),
		ph.salt,
		ph.params.Time,
		ph.params.Memory,
		ph.params.Parallelism,
		uint32(len(ph.sum)), // #nosec G115 - bounded by parseHash
	)

	return subtle.ConstantTimeCompare(computed, ph.sum) == 1
}

// NeedsRehash reports whether the encoded hash was produced with parameters
// other than the Hasher's current policy.
func (h *Hasher) NeedsRehash(encoded string) bool {
	ph, err := parseHash(encoded)
	if err != nil {
		return true
	}
	return ph.params != h.params || len(ph.sum) != keyLength
}

func (h *Hasher) secret(password string) []byte {
	if len(h.pepper) == 0 {
		return []byte(password)
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}

type phcHash struct {
	params Params
	salt   []byte
	sum    []byte
}

// parseHash splits $argon2id$v=19$m=X,t=Y,p=Z$salt$hash into its parts.
func parseHash(encoded string) (phcHash, error) {
	parts := strings.Split(encoded, "$")

	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	if len(parts) != 6 || parts[0] != "" {
		return phcHash{}, fmt.Errorf("%w: expected 6 parts", ErrInvalidHash)
	}
	if parts[1] != hashAlgorithm {
		return phcHash{}, fmt.Errorf("%w: not %s", ErrInvalidHash, hashAlgorithm)
	}
	if parts[2] != fmt.Sprintf("v=%d", hashVersion) {
		return phcHash{}, fmt.Errorf("%w: wrong version", ErrInvalidHash)
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return phcHash{}, fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}
	if err := p.Validate(); err != nil {
		return phcHash{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return phcHash{}, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	sum, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(sum) < 16 || len(sum) > 128 {
		return phcHash{}, fmt.Errorf("%w: hash", ErrInvalidHash)
	}

	return phcHash{params: p, salt: salt, sum: sum}, nil
}
