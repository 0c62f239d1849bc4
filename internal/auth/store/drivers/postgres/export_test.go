package postgres

import (
	"database/sql"

	"github.com/aussiebroadwan/tollgate/internal/auth/store/sqlstore"
)

func newTestDB(db *sql.DB) *sqlstore.DB { return sqlstore.New(db, Dialect) }
