package harness

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// AssertRegistered requires the account to exist with the given names and to
// still hold a verification token.
func (p *Probe) AssertRegistered(ctx context.Context, email, firstName, lastName string) error {
	d, ok, err := p.AccountDetails(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAssertionf("expected account %s to be registered, but it does not exist", email)
	}
	if d.FirstName != firstName || d.LastName != lastName {
		return domain.ErrAssertionf("expected account %s to have name %q %q, got %q %q",
			email, firstName, lastName, d.FirstName, d.LastName)
	}

	has, err := p.HasVerificationToken(ctx, email)
	if err != nil {
		return err
	}
	if !has {
		return domain.ErrAssertionf("expected account %s to have a verification token, found none", email)
	}
	return nil
}

// AssertEmailVerified requires enabled == true and the verification token to
// have been consumed.
func (p *Probe) AssertEmailVerified(ctx context.Context, email string) error {
	enabled, err := p.IsEnabled(ctx, email)
	if err != nil {
		return err
	}
	if !enabled {
		return domain.ErrAssertionf("expected account %s to be enabled after verification, got enabled=false", email)
	}

	has, err := p.HasVerificationToken(ctx, email)
	if err != nil {
		return err
	}
	if has {
		return domain.ErrAssertionf("expected verification token for %s to be consumed, but it still exists", email)
	}
	return nil
}

func (p *Probe) AssertProfileUpdated(ctx context.Context, email, firstName, lastName string) error {
	d, ok, err := p.AccountDetails(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAssertionf("expected account %s to exist after profile update, but it does not", email)
	}
	if d.FirstName != firstName {
		return domain.ErrAssertionf("expected first name of %s to be %q, got %q", email, firstName, d.FirstName)
	}
	if d.LastName != lastName {
		return domain.ErrAssertionf("expected last name of %s to be %q, got %q", email, lastName, d.LastName)
	}
	return nil
}

// AssertAccountDeleted accepts both hard deletion and a disabled row.
func (p *Probe) AssertAccountDeleted(ctx context.Context, email string) error {
	d, ok, err := p.AccountDetails(ctx, email)
	if err != nil {
		return err
	}
	if ok && d.Enabled {
		return domain.ErrAssertionf("expected account %s to be deleted or disabled, but it is present and enabled", email)
	}
	return nil
}

func (p *Probe) AssertLocked(ctx context.Context, email string) error {
	d, ok, err := p.AccountDetails(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAssertionf("expected account %s to be locked, but it does not exist", email)
	}
	if !d.Locked {
		return domain.ErrAssertionf("expected account %s to be locked after %d failed logins, got locked=false",
			email, d.FailedLoginAttempts)
	}
	return nil
}

func (p *Probe) AssertPasswordResetRequested(ctx context.Context, email string) error {
	has, err := p.HasPasswordResetToken(ctx, email)
	if err != nil {
		return err
	}
	if !has {
		return domain.ErrAssertionf("expected a password reset token for %s, found none", email)
	}
	return nil
}
