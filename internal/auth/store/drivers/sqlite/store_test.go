package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations(context.Background()))
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, newMemoryStore)
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "auth.db")

	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations(context.Background()))
	storetest.SeedIdentity(t, s, "id-1", "persisted")
	require.NoError(t, s.Close())

	s, err = sqlite.NewStore(dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.ApplyMigrations(context.Background()))

	n, err := s.Identities().CountIdentities(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestPing(t *testing.T) {
	s := newMemoryStore(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestNestedTxUnsupported(t *testing.T) {
	s := newMemoryStore(t)
	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		_, err := tx.Tx(context.Background())
		require.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}
