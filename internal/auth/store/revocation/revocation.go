// Package revocation holds the revocation list consulted on introspection.
// Records are append-only and written before Revoke returns, so a revoked
// identifier is visible to every later lookup on any worker.
package revocation

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

// List is a revocation list backend.
type List interface {
	// Revoke records rv. Recording an id that is already present is a no-op
	// and reports created=false.
	Revoke(ctx context.Context, rv domain.Revocation) (created bool, err error)

	// IsRevoked reports whether id has been revoked.
	IsRevoked(ctx context.Context, id string) (bool, error)

	// SubjectRevokedAt returns the latest subject-wide revocation time.
	SubjectRevokedAt(ctx context.Context, subject string) (time.Time, bool, error)

	// Purge drops records whose tokens have expired anyway.
	Purge(ctx context.Context, now time.Time) (int64, error)

	// Count returns the number of live records.
	Count(ctx context.Context) (int64, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
}
