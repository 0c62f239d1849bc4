package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

// SQL keeps revocations in the revocations table.
type SQL struct {
	store store.Store
}

var _ List = (*SQL)(nil)

func NewSQL(s store.Store) *SQL {
	return &SQL{store: s}
}

func (l *SQL) Revoke(ctx context.Context, rv domain.Revocation) (bool, error) {
	return l.store.Revocations().CreateRevocation(ctx, rv)
}

func (l *SQL) IsRevoked(ctx context.Context, id string) (bool, error) {
	_, err := l.store.Revocations().GetRevocation(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	}
	return false, err
}

func (l *SQL) SubjectRevokedAt(ctx context.Context, subject string) (time.Time, bool, error) {
	rv, err := l.store.Revocations().LatestSubjectRevocation(ctx, subject)
	switch {
	case err == nil:
		return rv.RevokedAt, true, nil
	case errors.Is(err, store.ErrNotFound):
		return time.Time{}, false, nil
	}
	return time.Time{}, false, err
}

func (l *SQL) Purge(ctx context.Context, now time.Time) (int64, error) {
	return l.store.Revocations().DeleteExpiredRevocations(ctx, now)
}

func (l *SQL) Count(ctx context.Context) (int64, error) {
	return l.store.Revocations().CountRevocations(ctx)
}

func (l *SQL) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}
