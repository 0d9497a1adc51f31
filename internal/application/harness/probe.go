package harness

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// Probe answers point-in-time questions about persisted account and token
// state. It never mutates anything.
type Probe struct {
	store Store
}

func NewProbe(store Store) *Probe {
	return &Probe{store: store}
}

// AccountExists reports whether exactly one account matches email.
func (p *Probe) AccountExists(ctx context.Context, email string) (bool, error) {
	n, err := p.store.Accounts().CountByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IsEnabled returns the stored enabled flag. A missing account reads as
// false, so callers cannot tell "disabled" from "absent" with this alone.
func (p *Probe) IsEnabled(ctx context.Context, email string) (bool, error) {
	return p.store.Accounts().Enabled(ctx, email)
}

// IsLocked has the same absent-is-false behavior as IsEnabled.
func (p *Probe) IsLocked(ctx context.Context, email string) (bool, error) {
	return p.store.Accounts().Locked(ctx, email)
}

func (p *Probe) AccountDetails(ctx context.Context, email string) (domain.AccountDetails, bool, error) {
	return p.store.Accounts().Details(ctx, email)
}

func (p *Probe) HasVerificationToken(ctx context.Context, email string) (bool, error) {
	return p.store.Tokens().HasVerificationToken(ctx, email)
}

func (p *Probe) HasPasswordResetToken(ctx context.Context, email string) (bool, error) {
	return p.store.Tokens().HasPasswordResetToken(ctx, email)
}

// Status runs every yes/no probe for email.
func (p *Probe) Status(ctx context.Context, email string) (domain.AccountStatus, error) {
	var st domain.AccountStatus
	var err error

	if st.Exists, err = p.AccountExists(ctx, email); err != nil {
		return domain.AccountStatus{}, err
	}
	if st.Enabled, err = p.IsEnabled(ctx, email); err != nil {
		return domain.AccountStatus{}, err
	}
	if st.Locked, err = p.IsLocked(ctx, email); err != nil {
		return domain.AccountStatus{}, err
	}
	if st.HasVerificationToken, err = p.HasVerificationToken(ctx, email); err != nil {
		return domain.AccountStatus{}, err
	}
	if st.HasPasswordResetToken, err = p.HasPasswordResetToken(ctx, email); err != nil {
		return domain.AccountStatus{}, err
	}
	return st, nil
}
