package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// KeyStoreAdapter adapts the store.Store interface to the jwtx.KeyStore interface.
// Private keys are sealed with the master key cipher before they reach the
// database, so jwtx never sees ciphertext and the store never sees plaintext.
type KeyStoreAdapter struct {
	store  Store
	cipher *cryptox.KeyCipher
}

var _ jwtx.KeyStore = (*KeyStoreAdapter)(nil)

// NewKeyStoreAdapter creates a new adapter that implements jwtx.KeyStore using a store.Store.
func NewKeyStoreAdapter(store Store, cipher *cryptox.KeyCipher) *KeyStoreAdapter {
	return &KeyStoreAdapter{store: store, cipher: cipher}
}

// LoadSigningKeys returns active and retired keys with decrypted private keys.
func (a *KeyStoreAdapter) LoadSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	keys, err := a.store.SigningKeys().ListSigningKeys(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]jwtx.SigningKeyRecord, 0, len(keys))
	for _, key := range keys {
		if key.State == domain.KeyStateRevoked {
			continue
		}
		pemData, err := a.cipher.Decrypt(key.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt key %s: %w", key.Kid, err)
		}
		records = append(records, jwtx.SigningKeyRecord{
			Kid:           key.Kid,
			Algorithm:     key.Algorithm,
			State:         jwtx.KeyState(key.State),
			PrivateKeyPEM: pemData,
			CreatedAt:     key.CreatedAt,
			RetiredAt:     key.RetiredAt,
			VerifyUntil:   key.VerifyUntil,
		})
	}
	return records, nil
}

// SaveRotation retires the current active key and inserts next in one
// transaction. A concurrent rotation by another instance fails on the
// single-active index and surfaces as an error.
func (a *KeyStoreAdapter) SaveRotation(ctx context.Context, next jwtx.SigningKeyRecord, retiredAt, verifyUntil time.Time) error {
	sealed, err := a.cipher.Encrypt(next.PrivateKeyPEM)
	if err != nil {
		return err
	}

	return a.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.SigningKeys().RetireActiveSigningKeys(ctx, retiredAt, verifyUntil); err != nil {
			return err
		}
		return tx.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
			Kid:                 next.Kid,
			Algorithm:           next.Algorithm,
			State:               domain.KeyStateActive,
			PrivateKeyEncrypted: sealed,
			CreatedAt:           next.CreatedAt,
		})
	})
}

// RevokeSigningKey moves a retired key to revoked.
func (a *KeyStoreAdapter) RevokeSigningKey(ctx context.Context, kid string, at time.Time) error {
	err := a.store.SigningKeys().RevokeSigningKey(ctx, kid, at)
	if errors.Is(err, ErrNotFound) {
		return jwtx.ErrNoKey
	}
	return err
}

// PurgeExpired deletes keys whose grace window ended before now.
func (a *KeyStoreAdapter) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return a.store.SigningKeys().DeleteExpiredSigningKeys(ctx, now)
}
