package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// InitAuthKeys builds the KeyManager on top of the database. Private keys
// are sealed with the master key from cfg.MasterKeyPath, which is created
// on first start. The returned adapter is also the housekeeping key purger.
//
// Supported algorithms: RS256, ES256, EdDSA
//
// Any failure wraps jwtx.ErrKeyUnavailable: the service must not start
// without an active signing key.
func InitAuthKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, *store.KeyStoreAdapter, error) {
	cipher, err := cryptox.LoadKeyCipher(cfg.MasterKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: master key: %v", jwtx.ErrKeyUnavailable, err)
	}
	logger.Info("master key loaded", "path", cfg.MasterKeyPath)

	keyStore := store.NewKeyStoreAdapter(db, cipher)

	logger.Info("initializing key manager",
		"algorithm", cfg.Algorithm,
		"rotation_interval", cfg.KeyRotationInterval,
		"grace_period", cfg.KeyGracePeriod,
	)

	km, err := jwtx.NewKeyManager(ctx, jwtx.KeyManagerOptions{
		Store:            keyStore,
		Algorithm:        cfg.Algorithm,
		RSABits:          cfg.RSABits,
		RotationInterval: cfg.KeyRotationInterval,
		GracePeriod:      cfg.KeyGracePeriod,
	})
	if err != nil {
		return nil, nil, err
	}

	active, err := km.CurrentSigner()
	if err != nil {
		return nil, nil, err
	}
	logger.Info("signing keys loaded",
		"algorithm", km.Algorithm(),
		"active_kid", active.KID(),
		"active_age", km.ActiveKeyAge(),
		"verification_keys", km.VerificationKeys().Len(),
	)

	return km, keyStore, nil
}
