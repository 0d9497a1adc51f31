package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/pkg/reqctx"
)

var Logger zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter builds the global logger from LOG_LEVEL (default info) and
// LOG_FORMAT ("json", anything else is console). Every line carries
// component=account-harness.
func InitWithWriter(w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if os.Getenv("LOG_FORMAT") != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("component", "account-harness").
		Logger()

	zlog.Logger = Logger
}

// WithCtx returns the global logger enriched with the request id and the
// authenticated caller, when present.
func WithCtx(ctx context.Context) *zerolog.Logger {
	c := Logger.With()
	if id := reqctx.RequestID(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	if caller := reqctx.Caller(ctx); caller != "" {
		c = c.Str("caller", caller)
	}
	l := c.Logger()
	return &l
}
