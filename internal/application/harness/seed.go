package harness

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

// DefaultSeeds are the baseline accounts most end-to-end suites log in with.
func DefaultSeeds() []domain.NewAccount {
	return []domain.NewAccount{
		{Email: "admin@example.com", FirstName: "Admin", LastName: "User", Password: "AdminPassword123!", Enabled: true, Roles: []domain.Role{domain.RoleAdmin, domain.RoleUser}},
		{Email: "user@example.com", FirstName: "Test", LastName: "User", Password: "UserPassword123!", Enabled: true},
		{Email: "pending@example.com", FirstName: "Pending", LastName: "User", Password: "PendingPassword123!"},
	}
}

// Seed creates each account, skipping ones that fail (typically duplicates
// from an earlier run). It returns how many were created.
func (f *Fixtures) Seed(ctx context.Context, seeds []domain.NewAccount) int {
	created := 0
	for _, s := range seeds {
		if _, err := f.CreateAccount(ctx, s); err != nil {
			logger.WithCtx(ctx).Warn().Err(err).Str("email", s.Email).Msg("seed skipped")
			continue
		}
		created++
	}
	logger.WithCtx(ctx).Info().Int("created", created).Int("total", len(seeds)).Msg("accounts seeded")
	return created
}
