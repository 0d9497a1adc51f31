package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/application/harness"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/config"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/memory"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
	http_handlers "github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/handlers"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(DefaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(addr string, debug bool) (*sql.DB, error)

	NewRedis func(addr, password string, db int) *redis.Client

	NewPublisher func(url, exchange string) (NotifierCloser, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type NotifierCloser interface {
	harness.Notifier
	Close() error
}

// Harness is the assembled set of test-state components.
type Harness struct {
	Store     *postgres.Store
	Probe     *harness.Probe
	Simulator *harness.Simulator
	Fixtures  *harness.Fixtures
	Mail      *redis.MailSink // nil unless NOTIFIER=redis
}

/*
========================
 Core bootstrap logic
========================
*/

// NewHarness builds the harness over db and the notifier chosen by cfg.
// The returned cleanup releases the notifier's connections, not db.
func NewHarness(cfg *config.Config, db *sql.DB, deps Deps) (*Harness, func(), error) {
	var cleanupFns []func()

	notifier, sink, err := newNotifier(cfg, deps, &cleanupFns)
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	store := postgres.NewStore(db)
	h := &Harness{
		Store: store,
		Probe: harness.NewProbe(store),
		Simulator: harness.NewSimulator(store, harness.SimulatorConfig{
			BaseURL:  cfg.AppBaseURL,
			Notifier: notifier,
			NewToken: security.NewToken,
		}),
		Fixtures: harness.NewFixtures(store, security.NewBcryptHasher(cfg.BcryptCost), security.NewToken),
		Mail:     sink,
	}
	return h, func() { runCleanup(cleanupFns) }, nil
}

func newNotifier(cfg *config.Config, deps Deps, cleanupFns *[]func()) (harness.Notifier, *redis.MailSink, error) {
	switch cfg.Notifier {
	case config.NotifierRedis:
		if deps.NewRedis == nil {
			return nil, nil, errors.New("bootstrap: NOTIFIER=redis but no redis constructor")
		}
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(context.Background()); err != nil {
			_ = c.Close()
			return fallback(cfg, domain.ErrRedisUnavailable(err))
		}
		logger.Logger.Info().Str("addr", cfg.RedisAddr).Msg("redis mail sink connected")
		*cleanupFns = append(*cleanupFns, func() { _ = c.Close() })
		sink := redis.NewMailSink(c, 0)
		return sink, sink, nil

	case config.NotifierRabbit:
		if deps.NewPublisher == nil {
			return nil, nil, errors.New("bootstrap: NOTIFIER=rabbit but no publisher constructor")
		}
		pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return fallback(cfg, err)
		}
		logger.Logger.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbitmq publisher connected")
		*cleanupFns = append(*cleanupFns, func() { _ = pub.Close() })
		return pub, nil, nil

	default:
		return memory.NewNoopNotifier(), nil, nil
	}
}

// fallback degrades to the no-op notifier in dev and fails elsewhere.
func fallback(cfg *config.Config, err error) (harness.Notifier, *redis.MailSink, error) {
	if cfg.Env == "dev" {
		logger.Logger.Warn().Err(err).Str("notifier", cfg.Notifier).Msg("notifier unavailable; using noop notifier")
		return memory.NewNoopNotifier(), nil, nil
	}
	return nil, nil, err
}

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db
	db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		return nil, nil, err
	}
	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	// 2) harness + notifier
	h, closeHarness, err := NewHarness(cfg, db, deps)
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}
	cleanupFns = append(cleanupFns, closeHarness)

	// seed (dev only)
	if cfg.Env == "dev" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		h.Fixtures.Seed(ctx, harness.DefaultSeeds())
		cancel()
	}

	// 3) handlers + middleware
	signer := security.NewJWTSigner(cfg.TestAPISecret, cfg.JWTIssuer)

	var purger http_handlers.MailPurger
	if h.Mail != nil {
		purger = h.Mail
	}

	newRouter := deps.NewRouter
	if newRouter == nil {
		newRouter = router.New
	}
	mux, err := newRouter(router.Deps{
		Health:  http_handlers.NewHealthHandler(h.Store),
		TestAPI: http_handlers.NewTestAPIHandler(h.Probe, h.Simulator, h.Fixtures, purger),
		AuthMW:  middleware.Auth(signer, response.WriteError),
		AdminMW: middleware.RequireAtLeast(domain.RoleAdmin, response.WriteError),
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, fmt.Errorf("bootstrap: router: %w", err)
	}

	// 4) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return srv, func() { runCleanup(cleanupFns) }, nil
}

/*
========================
 Default deps (prod)
========================
*/

func DefaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		NewRedis:   redis.New,
		NewPublisher: func(url, exchange string) (NotifierCloser, error) {
			return rabbitmq.NewPublisher(url, exchange)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
