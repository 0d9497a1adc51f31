//go:build integration

package cases

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/bootstrap"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/config"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	itinfra "github.com/baechuer/real-time-ressys/services/account-harness/test/integration/infra"
)

const baseURL = "http://localhost:8080"

type Deps struct {
	Env itinfra.Env
	Cfg *config.Config
	DB  *sql.DB

	*bootstrap.Harness
}

func testConfig(env itinfra.Env) *config.Config {
	return &config.Config{
		Env:            "test",
		AppBaseURL:     baseURL,
		TestAPISecret:  "integration-test-secret",
		JWTIssuer:      "account-harness-it",
		Notifier:       config.NotifierNoop,
		RedisAddr:      env.RedisAddr,
		RabbitURL:      env.RabbitURL,
		RabbitExchange: itinfra.ITExchange,
		BcryptCost:     4,
	}
}

// MustNewDeps starts (or reuses) Postgres, migrates and truncates it, then
// assembles the harness. tweak may switch the notifier before wiring.
func MustNewDeps(t *testing.T, tweak func(*config.Config)) *Deps {
	t.Helper()

	env := itinfra.LoadEnv()
	dsn := itinfra.StartPostgres(t, env)
	db := itinfra.OpenMigrated(t, dsn)

	cfg := testConfig(env)
	cfg.DBAddr = dsn
	if tweak != nil {
		tweak(cfg)
	}

	h, cleanup, err := bootstrap.NewHarness(cfg, db, bootstrap.DefaultDeps())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	return &Deps{Env: env, Cfg: cfg, DB: db, Harness: h}
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func (d *Deps) mustCreate(t *testing.T, ctx context.Context, email string, enabled bool) int64 {
	t.Helper()
	id, err := d.Fixtures.CreateAccount(ctx, domain.NewAccount{
		Email:     email,
		FirstName: "It",
		LastName:  "User",
		Password:  "Passw0rd!Passw0rd",
		Enabled:   enabled,
	})
	require.NoError(t, err)
	return id
}
