package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories are exposed as methods so a
// Tx-scoped Store hands out repositories bound to the same transaction.
type Store interface {
	Identities() Identities
	RefreshTokens() RefreshTokens
	SigningKeys() SigningKeys
	Revocations() Revocations

	ApplyMigrations(ctx context.Context) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Identities interface {
	// CreateIdentity inserts a new identity. ErrAlreadyExists on a taken username.
	CreateIdentity(ctx context.Context, i domain.Identity) error
	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)
	// GetIdentityByUsername is used during the password grant.
	GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error)
	// UpdatePasswordHash replaces the PHC hash, e.g. after a parameter change.
	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
	SetDisabled(ctx context.Context, id string, disabled bool, at time.Time) error
	CountIdentities(ctx context.Context) (int64, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new generation. A second token for the
	// same (chain, generation) is ErrAlreadyExists.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// ConsumeRefreshToken marks the token consumed with a single conditional
	// write. It reports true only for the caller whose write took effect: the
	// token existed, was unconsumed, unrevoked and unexpired at now.
	ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (bool, error)

	// RevokeChain revokes every token of a chain. Already revoked tokens keep
	// their original reason.
	RevokeChain(ctx context.Context, chainID, reason string, at time.Time) (int64, error)

	// ListSubjectChains returns the chain ids of a subject that still hold a
	// token that is not revoked.
	ListSubjectChains(ctx context.Context, subject string) ([]string, error)

	// DeleteExpiredRefreshTokens removes tokens past their expiry.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)

	Stats(ctx context.Context, now time.Time) (domain.RefreshStats, error)
}

type SigningKeys interface {
	// CreateSigningKey stores a new key with encrypted private key material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// RetireActiveSigningKeys moves every active key to retired.
	RetireActiveSigningKeys(ctx context.Context, retiredAt, verifyUntil time.Time) (int64, error)

	// ListSigningKeys returns every stored key, newest first.
	ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// RevokeSigningKey moves a retired key to revoked. ErrNotFound if no
	// retired key has that kid.
	RevokeSigningKey(ctx context.Context, kid string, at time.Time) error

	// DeleteExpiredSigningKeys removes retired and revoked keys whose grace
	// window ended before now.
	DeleteExpiredSigningKeys(ctx context.Context, now time.Time) (int64, error)
}

type Revocations interface {
	// CreateRevocation appends a record. An existing id is left untouched
	// and reported as created=false.
	CreateRevocation(ctx context.Context, r domain.Revocation) (created bool, err error)

	GetRevocation(ctx context.Context, id string) (domain.Revocation, error)

	// LatestSubjectRevocation returns the newest subject-wide revocation.
	LatestSubjectRevocation(ctx context.Context, subject string) (domain.Revocation, error)

	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)

	CountRevocations(ctx context.Context) (int64, error)
}
