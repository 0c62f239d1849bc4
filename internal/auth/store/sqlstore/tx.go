package sqlstore

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

type txStore struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *txStore) conn() conn { return conn{db: t.tx, dialect: t.dialect} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // nothing to close; caller will commit/rollback and outer DB stays open

// Ping is a no-op for transactions. The connection is already established
// when the transaction is created.
func (t *txStore) Ping(context.Context) error { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Identities() store.Identities       { return t.conn().identities() }
func (t *txStore) RefreshTokens() store.RefreshTokens { return t.conn().refreshTokens() }
func (t *txStore) SigningKeys() store.SigningKeys     { return t.conn().signingKeys() }
func (t *txStore) Revocations() store.Revocations     { return t.conn().revocations() }

func (t *txStore) ApplyMigrations(context.Context) error { return nil } // no-op; migrations are applied before starting a tx
