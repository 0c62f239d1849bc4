package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

type identitiesRepo struct {
	c conn
}

const identityColumns = `id, username, role, password_hash, disabled, created_at, updated_at`

func scanIdentity(row scanner) (domain.Identity, error) {
	var (
		i                    domain.Identity
		createdAt, updatedAt int64
	)
	if err := row.Scan(&i.ID, &i.Username, &i.Role, &i.PasswordHash, &i.Disabled, &createdAt, &updatedAt); err != nil {
		return domain.Identity{}, err
	}
	i.CreatedAt = fromMillis(createdAt)
	i.UpdatedAt = fromMillis(updatedAt)
	return i, nil
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, i domain.Identity) error {
	_, err := r.c.exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.Username, i.Role, i.PasswordHash, i.Disabled, millis(i.CreatedAt), millis(i.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	row := r.c.queryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	i, err := scanIdentity(row)
	if err != nil {
		return domain.Identity{}, r.c.mapError(err)
	}
	return i, nil
}

func (r *identitiesRepo) GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error) {
	row := r.c.queryRow(ctx, `SELECT `+identityColumns+` FROM identities WHERE username = ?`, username)
	i, err := scanIdentity(row)
	if err != nil {
		return domain.Identity{}, r.c.mapError(err)
	}
	return i, nil
}

func (r *identitiesRepo) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error {
	res, err := r.c.exec(ctx, `
		UPDATE identities SET password_hash = ?, updated_at = ?
		WHERE id = ?`,
		hash, millis(at), id,
	)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return requireAffected(res)
}

func (r *identitiesRepo) SetDisabled(ctx context.Context, id string, disabled bool, at time.Time) error {
	res, err := r.c.exec(ctx, `
		UPDATE identities SET disabled = ?, updated_at = ?
		WHERE id = ?`,
		disabled, millis(at), id,
	)
	if err != nil {
		return fmt.Errorf("set disabled: %w", err)
	}
	return requireAffected(res)
}

func (r *identitiesRepo) CountIdentities(ctx context.Context) (int64, error) {
	var n int64
	if err := r.c.queryRow(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return n, nil
}

// requireAffected maps an UPDATE that matched nothing to ErrNotFound.
func requireAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
