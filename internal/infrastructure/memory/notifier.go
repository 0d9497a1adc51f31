package memory

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/application/harness"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

// NoopNotifier logs password-reset mail and drops it. It is the default for
// suites that read the reset token straight from the database.
type NoopNotifier struct{}

var _ harness.Notifier = NoopNotifier{}

func NewNoopNotifier() NoopNotifier { return NoopNotifier{} }

func (NoopNotifier) NotifyPasswordReset(ctx context.Context, msg harness.PasswordResetMail) error {
	logger.WithCtx(ctx).Info().
		Str("notifier", "noop").
		Str("email", msg.Email).
		Str("url", msg.URL).
		Msg("password reset mail dropped")
	return nil
}
