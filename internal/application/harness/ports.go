package harness

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// AccountPort is the read/write surface over persisted accounts.
// Emails are matched exactly; no normalization is applied.
type AccountPort interface {
	CountByEmail(ctx context.Context, email string) (int, error)
	// Enabled and Locked return false for a missing row.
	Enabled(ctx context.Context, email string) (bool, error)
	Locked(ctx context.Context, email string) (bool, error)
	Details(ctx context.Context, email string) (domain.AccountDetails, bool, error)
	Enable(ctx context.Context, email string) error
}

// TokenPort is the read/write surface over verification and reset tokens.
type TokenPort interface {
	HasVerificationToken(ctx context.Context, email string) (bool, error)
	HasPasswordResetToken(ctx context.Context, email string) (bool, error)
	VerificationToken(ctx context.Context, email string) (string, bool, error)
	DeleteVerificationToken(ctx context.Context, email string) error
	// CreatePasswordResetToken returns false when no account matches email.
	CreatePasswordResetToken(ctx context.Context, email, token string) (bool, error)
}

// FixturePort inserts and clears fixture data.
type FixturePort interface {
	InsertAccount(ctx context.Context, row domain.AccountRow) (int64, error)
	GrantRole(ctx context.Context, accountID int64, authority string) error
	InsertVerificationToken(ctx context.Context, accountID int64, token string) error
	Truncate(ctx context.Context) error
}

// Store groups the ports and can run a function with all of them bound to
// one transaction.
type Store interface {
	Accounts() AccountPort
	Tokens() TokenPort
	Fixtures() FixturePort
	InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// PasswordHasher hashes fixture passwords the way the user-management
// library expects to find them.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// TokenGenerator returns fresh opaque token strings.
type TokenGenerator func() string

// PasswordResetMail is handed to a Notifier when a reset is simulated.
type PasswordResetMail struct {
	Email string `json:"email"`
	Token string `json:"token"`
	URL   string `json:"url"`
}

// Notifier delivers password-reset mail. Tests inject a no-op or recording
// implementation instead of toggling a global flag.
type Notifier interface {
	NotifyPasswordReset(ctx context.Context, msg PasswordResetMail) error
}
