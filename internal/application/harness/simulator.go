package harness

import (
	"context"
	"net/url"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

const (
	DefaultBaseURL = "http://localhost:8080"

	registrationConfirmPath = "/user/registrationConfirm"
	changePasswordPath      = "/user/changePassword"

	// InvalidToken never matches a persisted token.
	InvalidToken = "invalid-token-12345"
)

// Simulator shortcuts the email round trips for tests that do not exercise
// the mail pipeline itself.
type Simulator struct {
	store    Store
	baseURL  string
	notifier Notifier
	newToken TokenGenerator
}

type SimulatorConfig struct {
	BaseURL  string
	Notifier Notifier
	NewToken TokenGenerator
}

func NewSimulator(store Store, cfg SimulatorConfig) *Simulator {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Simulator{
		store:    store,
		baseURL:  base,
		notifier: cfg.Notifier,
		newToken: cfg.NewToken,
	}
}

// Token returns the account's active verification token, if any.
func (s *Simulator) Token(ctx context.Context, email string) (string, bool, error) {
	return s.store.Tokens().VerificationToken(ctx, email)
}

// SimulateVerification enables the account and deletes its verification
// token in one transaction. Unknown emails and already consumed tokens
// affect zero rows and are not errors.
func (s *Simulator) SimulateVerification(ctx context.Context, email string) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Accounts().Enable(ctx, email); err != nil {
			return err
		}
		return tx.Tokens().DeleteVerificationToken(ctx, email)
	})
	if err != nil {
		return err
	}

	logger.WithCtx(ctx).Debug().Str("email", email).Msg("verification simulated")
	return nil
}

// VerificationURL renders the confirmation link the user would have received.
func (s *Simulator) VerificationURL(ctx context.Context, email string) (string, error) {
	token, ok, err := s.Token(ctx, email)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrMissingToken(email)
	}
	return s.link(registrationConfirmPath, token), nil
}

// InvalidVerificationURL returns a confirmation link whose token never exists.
func (s *Simulator) InvalidVerificationURL() string {
	return s.link(registrationConfirmPath, InvalidToken)
}

// SimulatePasswordResetRequest issues a reset token for an existing account
// and hands the reset link to the configured notifier.
func (s *Simulator) SimulatePasswordResetRequest(ctx context.Context, email string) (string, error) {
	if s.newToken == nil {
		return "", domain.ErrInternal(errNoTokenGenerator)
	}
	token := s.newToken()

	ok, err := s.store.Tokens().CreatePasswordResetToken(ctx, email, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrAccountNotFound(email)
	}

	mail := PasswordResetMail{
		Email: email,
		Token: token,
		URL:   s.PasswordResetURL(token),
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyPasswordReset(ctx, mail); err != nil {
			return "", err
		}
	}

	logger.WithCtx(ctx).Debug().Str("email", email).Msg("password reset simulated")
	return token, nil
}

// PasswordResetURL renders the change-password link for a reset token.
func (s *Simulator) PasswordResetURL(token string) string {
	return s.link(changePasswordPath, token)
}

func (s *Simulator) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}
