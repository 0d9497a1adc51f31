//go:build integration

package infra

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/config"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/db/postgres"
)

// StartPostgres returns a DSN for a database the test owns. With IT_PG_DSN
// unset it runs postgres:17 in a container that is terminated on cleanup.
func StartPostgres(t *testing.T, env Env) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if env.PostgresDSN != "" {
		return env.PostgresDSN
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:17",
		tcpostgres.WithDatabase("harness"),
		tcpostgres.WithUsername("harness"),
		tcpostgres.WithPassword("harness"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		_ = ctr.Terminate(context.Background())
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// OpenMigrated connects through the production pool settings, applies the
// embedded migrations and clears every table.
func OpenMigrated(t *testing.T, dsn string) *sql.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, WaitPostgres(ctx, dsn))

	db, err := config.NewDB(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db))
	require.NoError(t, ResetPostgres(ctx, db))
	return db
}
