package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/bootstrap"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/config"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

const drainTimeout = 10 * time.Second

type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
}

type builder func() (srv server, addr string, cleanup func(), err error)

// Run serves until ctx is cancelled or the listener fails and returns the
// process exit code. In-flight requests get drainTimeout to finish.
func Run(ctx context.Context, build builder, lg zerolog.Logger) int {
	srv, addr, cleanup, err := build()
	if err != nil {
		lg.Error().Err(err).Msg("bootstrap failed")
		return 1
	}
	defer cleanup()

	served := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", addr).Msg("test api listening")
		served <- srv.ListenAndServe()
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		lg.Error().Err(err).Msg("listener failed")
		return 1
	case <-ctx.Done():
		lg.Info().Msg("stopping test api")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		lg.Warn().Err(err).Msg("drain incomplete; closing connections")
		_ = srv.Close()
	}
	return 0
}

func fromBootstrap() (server, string, func(), error) {
	srv, cleanup, err := bootstrap.NewServer()
	if err != nil {
		return nil, "", nil, err
	}
	return srv, srv.Addr, cleanup, nil
}

func main() {
	logger.Init()
	if err := config.LoadDotEnv(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("ignoring .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, fromBootstrap, logger.Logger)
	stop()
	os.Exit(code)
}
