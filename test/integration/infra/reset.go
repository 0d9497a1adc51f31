//go:build integration

package infra

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/db/postgres"
)

func ResetPostgres(ctx context.Context, db *sql.DB) error {
	if err := postgres.NewStore(db).Fixtures().Truncate(ctx); err != nil {
		return fmt.Errorf("reset postgres: %w", err)
	}
	return nil
}

func ResetRedis(ctx context.Context, addr string) error {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer func() { _ = rdb.Close() }()
	return rdb.FlushDB(ctx).Err()
}
