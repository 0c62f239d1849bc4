//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "tollgate",
			"POSTGRES_PASSWORD": "tollgate",
			"POSTGRES_DB":       "tollgate",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://tollgate:tollgate@%s:%s/tollgate?sslmode=disable", host, port.Port())
}

func TestStore(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	// Every subtest gets its own schema-clean database state.
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := postgres.NewStore(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		_, err = s.SQL().ExecContext(ctx, `DROP SCHEMA public CASCADE`)
		require.NoError(t, err)
		_, err = s.SQL().ExecContext(ctx, `CREATE SCHEMA public`)
		require.NoError(t, err)
		require.NoError(t, s.ApplyMigrations(ctx))
		return s
	})
}
