// Command harness drives the test-state harness from a shell: schema
// migrations, fixtures, probes, the verification shortcut and envelope
// comparison.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/application/harness"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/bootstrap"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/config"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/envelope"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

const usage = "command (migrate|status|down|seed|reset|probe|assert|verify|url|invalid-url|reset-password|compare|token)"

var errUsage = errors.New("usage")

type options struct {
	command string
	timeout time.Duration
	target  int64

	email     string
	check     string
	firstName string
	lastName  string

	expected string
	body     string
	status   int

	subject string
	role    string
	ttl     time.Duration
}

// env holds what run needs from the outside world.
type env struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (*config.Config, error)
	openDB     func(dsn string, debug bool) (*sql.DB, error)
	deps       bootstrap.Deps
}

func main() {
	logger.Init()
	if err := config.LoadDotEnv(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("ignoring .env")
	}

	e := env{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		loadConfig: config.LoadCLI,
		openDB:     config.NewDB,
		deps:       bootstrap.DefaultDeps(),
	}
	if err := run(context.Background(), os.Args[1:], e); err != nil {
		if !errors.Is(err, errUsage) {
			logger.Logger.Error().Err(err).Msg("harness command failed")
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("harness", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.command, "command", "", usage)
	fs.DurationVar(&o.timeout, "timeout", time.Minute, "command timeout")
	fs.Int64Var(&o.target, "target", 0, "target version for down (0 rolls back one step)")
	fs.StringVar(&o.email, "email", "", "account email")
	fs.StringVar(&o.check, "check", "", "assertion (registered|verified|profile|deleted|locked|reset-requested)")
	fs.StringVar(&o.firstName, "first", "", "expected first name (registered, profile)")
	fs.StringVar(&o.lastName, "last", "", "expected last name (registered, profile)")
	fs.StringVar(&o.expected, "expected", "", "file holding the expected envelope (compare)")
	fs.StringVar(&o.body, "body", "", "file holding the observed response body (compare)")
	fs.IntVar(&o.status, "status", 200, "observed HTTP status (compare)")
	fs.StringVar(&o.subject, "subject", "harness-cli", "token subject (token)")
	fs.StringVar(&o.role, "role", string(domain.RoleAdmin), "token role (token)")
	fs.DurationVar(&o.ttl, "ttl", time.Hour, "token lifetime (token)")

	if err := fs.Parse(args); err != nil {
		return o, errUsage
	}
	if o.command == "" {
		fmt.Fprintln(stderr, "missing -command:", usage)
		return o, errUsage
	}
	return o, nil
}

func run(ctx context.Context, args []string, e env) error {
	o, err := parseFlags(args, e.stderr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// commands that never touch the database
	switch o.command {
	case "compare":
		return compare(o, e.stdout)
	case "token", "invalid-url":
		cfg, err := e.loadConfig()
		if err != nil {
			return err
		}
		if o.command == "token" {
			return mintToken(cfg, o, e.stdout)
		}
		sim := harness.NewSimulator(nil, harness.SimulatorConfig{BaseURL: cfg.AppBaseURL})
		_, err = fmt.Fprintln(e.stdout, sim.InvalidVerificationURL())
		return err
	}

	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireDB(); err != nil {
		return err
	}
	db, err := e.openDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	defer db.Close()

	switch o.command {
	case "migrate":
		return postgres.Migrate(ctx, db)
	case "status":
		return postgres.MigrationStatus(ctx, db)
	case "down":
		return postgres.Rollback(ctx, db, o.target)
	}

	h, cleanup, err := bootstrap.NewHarness(cfg, db, e.deps)
	if err != nil {
		return err
	}
	defer cleanup()

	switch o.command {
	case "seed":
		n := h.Fixtures.Seed(ctx, harness.DefaultSeeds())
		return writeJSON(e.stdout, map[string]int{"seeded": n})

	case "reset":
		if err := h.Fixtures.Reset(ctx); err != nil {
			return err
		}
		if h.Mail != nil {
			if err := h.Mail.Purge(ctx); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(e.stdout, "reset")
		return err

	case "probe":
		if o.email == "" {
			return domain.ErrMissingField("email")
		}
		st, err := h.Probe.Status(ctx, o.email)
		if err != nil {
			return err
		}
		return writeJSON(e.stdout, st)

	case "assert":
		if o.email == "" {
			return domain.ErrMissingField("email")
		}
		if err := runAssertion(ctx, h.Probe, o); err != nil {
			return err
		}
		_, err := fmt.Fprintln(e.stdout, "ok")
		return err

	case "verify":
		if o.email == "" {
			return domain.ErrMissingField("email")
		}
		if err := h.Simulator.SimulateVerification(ctx, o.email); err != nil {
			return err
		}
		return h.Probe.AssertEmailVerified(ctx, o.email)

	case "url":
		if o.email == "" {
			return domain.ErrMissingField("email")
		}
		u, err := h.Simulator.VerificationURL(ctx, o.email)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(e.stdout, u)
		return err

	case "reset-password":
		if o.email == "" {
			return domain.ErrMissingField("email")
		}
		token, err := h.Simulator.SimulatePasswordResetRequest(ctx, o.email)
		if err != nil {
			return err
		}
		return writeJSON(e.stdout, map[string]string{
			"token": token,
			"url":   h.Simulator.PasswordResetURL(token),
		})

	default:
		fmt.Fprintf(e.stderr, "unsupported command %q: %s\n", o.command, usage)
		return errUsage
	}
}

func runAssertion(ctx context.Context, p *harness.Probe, o options) error {
	switch o.check {
	case "registered":
		return p.AssertRegistered(ctx, o.email, o.firstName, o.lastName)
	case "verified":
		return p.AssertEmailVerified(ctx, o.email)
	case "profile":
		return p.AssertProfileUpdated(ctx, o.email, o.firstName, o.lastName)
	case "deleted":
		return p.AssertAccountDeleted(ctx, o.email)
	case "locked":
		return p.AssertLocked(ctx, o.email)
	case "reset-requested":
		return p.AssertPasswordResetRequested(ctx, o.email)
	case "":
		return domain.ErrMissingField("check")
	default:
		return domain.ErrInvalidField("check", "unknown assertion "+o.check)
	}
}

func compare(o options, stdout io.Writer) error {
	if o.expected == "" {
		return domain.ErrMissingField("expected")
	}

	raw, err := os.ReadFile(o.expected)
	if err != nil {
		return domain.ErrInvalidField("expected", err.Error())
	}
	var want envelope.Envelope
	if err := json.Unmarshal(raw, &want); err != nil {
		return domain.ErrInvalidJSON(err)
	}

	// an absent body file stands for an empty response
	var body []byte
	if o.body != "" {
		if body, err = os.ReadFile(o.body); err != nil {
			return domain.ErrInvalidField("body", err.Error())
		}
	}

	if err := envelope.Compare(o.status, body, want); err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, "match")
	return err
}

func mintToken(cfg *config.Config, o options, stdout io.Writer) error {
	if cfg.TestAPISecret == "" {
		return domain.ErrMissingField("TEST_API_SECRET")
	}
	if !domain.Role(o.role).Valid() {
		return domain.ErrInvalidField("role", "must be user or admin")
	}

	signer := security.NewJWTSigner(cfg.TestAPISecret, cfg.JWTIssuer)
	token, err := signer.Sign(o.subject, domain.Role(o.role), o.ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
