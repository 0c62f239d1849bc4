// Package sqlstore implements store.Store over database/sql. The SQL is
// shared by every driver; a Dialect covers placeholder style and error
// classification, and each driver package owns connection setup and
// migrations.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect describes the differences between SQL backends.
type Dialect struct {
	Name string

	// Numbered placeholders ($1, $2, ...) instead of "?".
	Numbered bool

	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(err error) bool
}

// Rebind rewrites "?" placeholders for the dialect. Queries in this package
// never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// conn binds a DBTX to a dialect. Every repository goes through it.
type conn struct {
	db      DBTX
	dialect Dialect
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := c.db.ExecContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return nil, c.mapError(err)
	}
	return res, nil
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.db.QueryContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return nil, c.mapError(err)
	}
	return rows, nil
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, c.dialect.Rebind(query), args...)
}

func (c conn) mapError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case c.dialect.IsUniqueViolation != nil && c.dialect.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
	}
	return err
}

func (c conn) identities() store.Identities       { return &identitiesRepo{c: c} }
func (c conn) refreshTokens() store.RefreshTokens { return &refreshTokensRepo{c: c} }
func (c conn) signingKeys() store.SigningKeys     { return &signingKeysRepo{c: c} }
func (c conn) revocations() store.Revocations     { return &revocationsRepo{c: c} }

// DB is the non-transactional part of store.Store. Driver packages embed
// it and add ApplyMigrations.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

// SQL returns the underlying handle for migration tooling.
func (d *DB) SQL() *sql.DB { return d.db }

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) Close() error { return d.db.Close() }

// Ping verifies the database connection is still alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) conn() conn { return conn{db: d.db, dialect: d.dialect} }

func (d *DB) Identities() store.Identities       { return d.conn().identities() }
func (d *DB) RefreshTokens() store.RefreshTokens { return d.conn().refreshTokens() }
func (d *DB) SigningKeys() store.SigningKeys     { return d.conn().signingKeys() }
func (d *DB) Revocations() store.Revocations     { return d.conn().revocations() }

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (d *DB) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx, dialect: d.dialect}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (d *DB) WithTx(ctx context.Context, fn func(tx store.Tx) error) (err error) {
	tx, err := d.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
