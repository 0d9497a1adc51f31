package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/pkg/reqctx"
)

func TestInitWithWriter_Defaults_ToInfoAndConsole(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	if Logger.GetLevel().String() != "info" {
		t.Fatalf("expected level=info, got %s", Logger.GetLevel().String())
	}
	if zlog.Logger.GetLevel().String() != "info" {
		t.Fatalf("expected global level=info, got %s", zlog.Logger.GetLevel().String())
	}

	Logger.Info().Msg("hello")
	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected console output, got json-like: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("expected message in output, got: %q", out)
	}
}

func TestInitWithWriter_InvalidLogLevel_FallsBackToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "not-a-level")
	t.Setenv("LOG_FORMAT", "console")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	Logger.Debug().Msg("debug-should-not-print")
	Logger.Info().Msg("info-should-print")
	out := buf.String()

	if strings.Contains(out, "debug-should-not-print") {
		t.Fatalf("did not expect debug output at info level, got: %q", out)
	}
	if !strings.Contains(out, "info-should-print") {
		t.Fatalf("expected info output, got: %q", out)
	}
}

func TestInitWithWriter_JSONFormat_OutputsJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	Logger.Info().Str("k", "v").Msg("hello")
	out := strings.TrimSpace(buf.String())

	if !strings.HasPrefix(out, "{") || !strings.HasSuffix(out, "}") {
		t.Fatalf("expected json object line, got: %q", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Fatalf("expected message field, got: %q", out)
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("expected k field, got: %q", out)
	}
}

func TestWithCtx_AddsRequestID(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	ctx := reqctx.WithRequestID(context.Background(), "rid-42")
	ctx = reqctx.WithCaller(ctx, "ci-admin")
	WithCtx(ctx).Info().Msg("probe")

	out := buf.String()
	for _, want := range []string{`"request_id":"rid-42"`, `"caller":"ci-admin"`, `"component":"account-harness"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s, got: %q", want, out)
		}
	}
}

func TestWithCtx_NoRequestID_LeavesFieldOut(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	InitWithWriter(&buf)

	WithCtx(context.Background()).Info().Msg("probe")

	if strings.Contains(buf.String(), "request_id") || strings.Contains(buf.String(), "caller") {
		t.Fatalf("did not expect request fields, got: %q", buf.String())
	}
}
