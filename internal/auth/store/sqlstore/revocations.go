package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

type revocationsRepo struct {
	c conn
}

const revocationColumns = `id, kind, subject, reason, revoked_at, expires_at`

func scanRevocation(row scanner) (domain.Revocation, error) {
	var (
		rv                   domain.Revocation
		revokedAt, expiresAt int64
	)
	if err := row.Scan(&rv.ID, &rv.Kind, &rv.Subject, &rv.Reason, &revokedAt, &expiresAt); err != nil {
		return domain.Revocation{}, err
	}
	rv.RevokedAt = fromMillis(revokedAt)
	rv.ExpiresAt = fromMillis(expiresAt)
	return rv, nil
}

// CreateRevocation relies on ON CONFLICT DO NOTHING so concurrent revokes
// of the same id never fail.
func (r *revocationsRepo) CreateRevocation(ctx context.Context, rv domain.Revocation) (bool, error) {
	res, err := r.c.exec(ctx, `
		INSERT INTO revocations (`+revocationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		rv.ID, rv.Kind, rv.Subject, rv.Reason, millis(rv.RevokedAt), millis(rv.ExpiresAt),
	)
	if err != nil {
		return false, fmt.Errorf("create revocation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create revocation: %w", err)
	}
	return n == 1, nil
}

func (r *revocationsRepo) GetRevocation(ctx context.Context, id string) (domain.Revocation, error) {
	row := r.c.queryRow(ctx, `SELECT `+revocationColumns+` FROM revocations WHERE id = ?`, id)
	rv, err := scanRevocation(row)
	if err != nil {
		return domain.Revocation{}, r.c.mapError(err)
	}
	return rv, nil
}

func (r *revocationsRepo) LatestSubjectRevocation(ctx context.Context, subject string) (domain.Revocation, error) {
	row := r.c.queryRow(ctx, `
		SELECT `+revocationColumns+` FROM revocations
		WHERE subject = ? AND kind = ?
		ORDER BY revoked_at DESC
		LIMIT 1`,
		subject, domain.RevocationSubject,
	)
	rv, err := scanRevocation(row)
	if err != nil {
		return domain.Revocation{}, r.c.mapError(err)
	}
	return rv, nil
}

func (r *revocationsRepo) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.c.exec(ctx, `DELETE FROM revocations WHERE expires_at <= ?`, millis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired revocations: %w", err)
	}
	return res.RowsAffected()
}

func (r *revocationsRepo) CountRevocations(ctx context.Context) (int64, error) {
	var n int64
	if err := r.c.queryRow(ctx, `SELECT COUNT(*) FROM revocations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count revocations: %w", err)
	}
	return n, nil
}
