package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
)

type refreshTokensRepo struct {
	c conn
}

const refreshTokenColumns = `id, token_hash, chain_id, generation, subject, client_id,
	issued_at, expires_at, chain_expires_at, consumed_at, revoked, revoked_at, revoked_reason`

func scanRefreshToken(row scanner) (domain.RefreshToken, error) {
	var (
		t                                   domain.RefreshToken
		issuedAt, expiresAt, chainExpiresAt int64
		consumedAt, revokedAt               sql.NullInt64
		reason                              sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.TokenHash, &t.ChainID, &t.Generation, &t.Subject, &t.ClientID,
		&issuedAt, &expiresAt, &chainExpiresAt, &consumedAt, &t.Revoked, &revokedAt, &reason,
	)
	if err != nil {
		return domain.RefreshToken{}, err
	}
	t.IssuedAt = fromMillis(issuedAt)
	t.ExpiresAt = fromMillis(expiresAt)
	t.ChainExpiresAt = fromMillis(chainExpiresAt)
	t.ConsumedAt = mapNullTimePtr(consumedAt)
	t.RevokedAt = mapNullTimePtr(revokedAt)
	t.RevokedReason = mapNullString(reason)
	return t, nil
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.c.exec(ctx, `
		INSERT INTO refresh_tokens (`+refreshTokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TokenHash, t.ChainID, t.Generation, t.Subject, t.ClientID,
		millis(t.IssuedAt), millis(t.ExpiresAt), millis(t.ChainExpiresAt),
		mapOptionalTime(t.ConsumedAt), t.Revoked, mapOptionalTime(t.RevokedAt), mapStringNull(t.RevokedReason),
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row := r.c.queryRow(ctx, `SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = ?`, hash)
	t, err := scanRefreshToken(row)
	if err != nil {
		return domain.RefreshToken{}, r.c.mapError(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (bool, error) {
	res, err := r.c.exec(ctx, `
		UPDATE refresh_tokens SET consumed_at = ?
		WHERE token_hash = ?
		  AND consumed_at IS NULL
		  AND revoked = ?
		  AND expires_at > ?`,
		millis(now), hash, false, millis(now),
	)
	if err != nil {
		return false, fmt.Errorf("consume refresh token: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume refresh token: %w", err)
	}
	return n == 1, nil
}

func (r *refreshTokensRepo) RevokeChain(ctx context.Context, chainID, reason string, at time.Time) (int64, error) {
	res, err := r.c.exec(ctx, `
		UPDATE refresh_tokens SET revoked = ?, revoked_at = ?, revoked_reason = ?
		WHERE chain_id = ? AND revoked = ?`,
		true, millis(at), mapStringNull(reason), chainID, false,
	)
	if err != nil {
		return 0, fmt.Errorf("revoke chain: %w", err)
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) ListSubjectChains(ctx context.Context, subject string) ([]string, error) {
	rows, err := r.c.query(ctx, `
		SELECT DISTINCT chain_id FROM refresh_tokens
		WHERE subject = ? AND revoked = ?
		ORDER BY chain_id`,
		subject, false,
	)
	if err != nil {
		return nil, fmt.Errorf("list subject chains: %w", err)
	}
	defer rows.Close()

	var chains []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		chains = append(chains, id)
	}
	return chains, rows.Err()
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.c.exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, millis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) Stats(ctx context.Context, now time.Time) (domain.RefreshStats, error) {
	var s domain.RefreshStats
	err := r.c.queryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT chain_id) FROM refresh_tokens
		WHERE consumed_at IS NULL AND revoked = ? AND expires_at > ?`,
		false, millis(now),
	).Scan(&s.ActiveTokens, &s.ActiveChains)
	if err != nil {
		return s, fmt.Errorf("refresh stats: %w", err)
	}

	err = r.c.queryRow(ctx, `
		SELECT COUNT(DISTINCT chain_id) FROM refresh_tokens WHERE revoked = ?`,
		true,
	).Scan(&s.RevokedChains)
	if err != nil {
		return s, fmt.Errorf("refresh stats: %w", err)
	}
	return s, nil
}
