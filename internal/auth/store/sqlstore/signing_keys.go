package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

type signingKeysRepo struct {
	c conn
}

const signingKeyColumns = `kid, algorithm, state, private_key_encrypted, created_at, retired_at, verify_until, revoked_at`

func scanSigningKey(row scanner) (domain.SigningKey, error) {
	var (
		k                                 domain.SigningKey
		createdAt                         int64
		retiredAt, verifyUntil, revokedAt sql.NullInt64
	)
	err := row.Scan(&k.Kid, &k.Algorithm, &k.State, &k.PrivateKeyEncrypted, &createdAt, &retiredAt, &verifyUntil, &revokedAt)
	if err != nil {
		return domain.SigningKey{}, err
	}
	k.CreatedAt = fromMillis(createdAt)
	k.RetiredAt = mapNullTimePtr(retiredAt)
	k.VerifyUntil = mapNullTimePtr(verifyUntil)
	k.RevokedAt = mapNullTimePtr(revokedAt)
	return k, nil
}

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	_, err := r.c.exec(ctx, `
		INSERT INTO signing_keys (`+signingKeyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Kid, key.Algorithm, key.State, key.PrivateKeyEncrypted, millis(key.CreatedAt),
		mapOptionalTime(key.RetiredAt), mapOptionalTime(key.VerifyUntil), mapOptionalTime(key.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("create signing key: %w", err)
	}
	return nil
}

func (r *signingKeysRepo) RetireActiveSigningKeys(ctx context.Context, retiredAt, verifyUntil time.Time) (int64, error) {
	res, err := r.c.exec(ctx, `
		UPDATE signing_keys SET state = ?, retired_at = ?, verify_until = ?
		WHERE state = ?`,
		domain.KeyStateRetired, millis(retiredAt), millis(verifyUntil), domain.KeyStateActive,
	)
	if err != nil {
		return 0, fmt.Errorf("retire signing keys: %w", err)
	}
	return res.RowsAffected()
}

func (r *signingKeysRepo) ListSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.c.query(ctx, `SELECT `+signingKeyColumns+` FROM signing_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list signing keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.SigningKey
	for rows.Next() {
		k, err := scanSigningKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *signingKeysRepo) RevokeSigningKey(ctx context.Context, kid string, at time.Time) error {
	res, err := r.c.exec(ctx, `
		UPDATE signing_keys SET state = ?, revoked_at = ?
		WHERE kid = ? AND state = ?`,
		domain.KeyStateRevoked, millis(at), kid, domain.KeyStateRetired,
	)
	if err != nil {
		return fmt.Errorf("revoke signing key: %w", err)
	}
	return requireAffected(res)
}

func (r *signingKeysRepo) DeleteExpiredSigningKeys(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.c.exec(ctx, `
		DELETE FROM signing_keys
		WHERE state <> ? AND verify_until IS NOT NULL AND verify_until <= ?`,
		domain.KeyStateActive, millis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired signing keys: %w", err)
	}
	return res.RowsAffected()
}
