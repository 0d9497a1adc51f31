package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Notifier backends selectable at wiring time.
const (
	NotifierNoop   = "noop"
	NotifierRedis  = "redis"
	NotifierRabbit = "rabbit"
)

type Config struct {
	//App
	Env string // dev / test / ci
	//HTTP
	HTTPAddr string

	// Base URL of the system under test, used to render confirmation links.
	AppBaseURL string

	// Test API guard
	TestAPISecret string
	JWTIssuer     string

	// Infrastructure
	DBAddr  string
	DBDebug bool

	Notifier       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RabbitURL      string
	RabbitExchange string

	BcryptCost int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// A missing file is not an error; the process environment still applies.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the server configuration. TEST_API_SECRET is required.
func Load() (*Config, error) {
	return load(true)
}

// LoadCLI reads the configuration for the harness CLI. TEST_API_SECRET and
// DB_ADDR are optional; commands that open the database check DB_ADDR
// themselves with RequireDB.
func LoadCLI() (*Config, error) {
	return load(false)
}

// RequireDB reports a missing DB_ADDR.
func (c *Config) RequireDB() error {
	if c.DBAddr == "" {
		return fmt.Errorf("missing required env var: DB_ADDR")
	}
	return nil
}

func load(server bool) (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8090"),
		AppBaseURL:     strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		JWTIssuer:      getEnv("JWT_ISSUER", "account-harness"),
		Notifier:       strings.ToLower(getEnv("NOTIFIER", NotifierNoop)),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "city.events"),
	}

	// required values
	cfg.DBAddr = os.Getenv("DB_ADDR")
	if server {
		if err := cfg.RequireDB(); err != nil {
			return nil, err
		}
	}

	cfg.TestAPISecret = os.Getenv("TEST_API_SECRET")
	if server && cfg.TestAPISecret == "" {
		return nil, fmt.Errorf("missing required env var: TEST_API_SECRET")
	}

	if !strings.HasPrefix(cfg.AppBaseURL, "http://") && !strings.HasPrefix(cfg.AppBaseURL, "https://") {
		return nil, fmt.Errorf("APP_BASE_URL must start with http:// or https://")
	}

	debug, err := getBool("DB_DEBUG", false)
	if err != nil {
		return nil, err
	}
	cfg.DBDebug = debug

	// Notifier backend and the infrastructure it needs.
	switch cfg.Notifier {
	case NotifierNoop:
	case NotifierRedis:
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("missing required env var: REDIS_ADDR (NOTIFIER=redis)")
		}
	case NotifierRabbit:
		cfg.RabbitURL = os.Getenv("RABBIT_URL")
		if cfg.RabbitURL == "" {
			return nil, fmt.Errorf("missing required env var: RABBIT_URL (NOTIFIER=rabbit)")
		}
	default:
		return nil, fmt.Errorf("invalid NOTIFIER %q (want noop, redis or rabbit)", cfg.Notifier)
	}

	rdb, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = rdb

	// fixtures don't need production-strength hashing
	cost, err := getInt("BCRYPT_COST", 4)
	if err != nil {
		return nil, err
	}
	cfg.BcryptCost = cost

	//Timeout values are optional and have a default value if not
	rt, err := getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPReadTimeout = rt

	wt, err := getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPWriteTimeout = wt

	it, err := getDuration("HTTP_IDLE_TIMEOUT", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.HTTPIdleTimeout = it

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}
