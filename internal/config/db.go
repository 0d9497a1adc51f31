package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

// ApplicationName tags harness sessions in pg_stat_activity.
const ApplicationName = "account-harness"

// NewDB is the harness connection provider. Probes and simulator calls borrow
// a pooled connection per statement or transaction and return it on exit.
func NewDB(dsn string, debug bool) (*sql.DB, error) {
	connCfg, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db := stdlib.OpenDB(*connCfg)

	// test databases are small and short-lived
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(2 * time.Minute)
	db.SetConnMaxLifetime(15 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s:%d/%s: %w", connCfg.Host, connCfg.Port, connCfg.Database, err)
	}

	if debug {
		var version string
		_ = db.QueryRowContext(ctx, "SHOW server_version").Scan(&version)
		logger.Logger.Debug().
			Str("host", connCfg.Host).
			Str("db", connCfg.Database).
			Str("user", connCfg.User).
			Str("version", version).
			Msg("db connected")
	}
	return db, nil
}

func parseDSN(dsn string) (*pgx.ConnConfig, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty DB DSN")
	}
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DB DSN: %w", err)
	}
	if _, ok := connCfg.RuntimeParams["application_name"]; !ok {
		connCfg.RuntimeParams["application_name"] = ApplicationName
	}
	return connCfg, nil
}
