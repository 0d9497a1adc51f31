package postgres

import (
	"context"
	"strconv"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/dbx"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

const (
	qInsertAccount = `
INSERT INTO user_account (email, first_name, last_name, password, enabled, locked)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	qEnsureRole = `INSERT INTO role (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	qGrantRole  = `
INSERT INTO users_roles (user_id, role_id)
SELECT $1, id FROM role WHERE name = $2
ON CONFLICT DO NOTHING`
	qInsertVerificationToken = `
INSERT INTO verification_token (token, user_id, expiry_date)
VALUES ($1, $2, NOW() + INTERVAL '24 hours')`
	qTruncate = `
TRUNCATE TABLE password_reset_token, verification_token, users_roles, user_account
RESTART IDENTITY CASCADE`
)

// FixtureRepo writes fixture rows directly, bypassing the system under test.
type FixtureRepo struct {
	q dbx.DBTX
}

func NewFixtureRepo(q dbx.DBTX) *FixtureRepo {
	return &FixtureRepo{q: q}
}

func (r *FixtureRepo) InsertAccount(ctx context.Context, row domain.AccountRow) (int64, error) {
	var id int64
	err := r.q.QueryRowContext(ctx, qInsertAccount,
		row.Email, row.FirstName, row.LastName, row.PasswordHash, row.Enabled, row.Locked,
	).Scan(&id)
	if err != nil {
		return 0, domain.ErrQueryFailed("insert account", row.Email, err)
	}
	return id, nil
}

func (r *FixtureRepo) GrantRole(ctx context.Context, accountID int64, authority string) error {
	ref := "account " + strconv.FormatInt(accountID, 10)
	if _, err := r.q.ExecContext(ctx, qEnsureRole, authority); err != nil {
		return domain.ErrQueryFailed("ensure role "+authority, ref, err)
	}
	if _, err := r.q.ExecContext(ctx, qGrantRole, accountID, authority); err != nil {
		return domain.ErrQueryFailed("grant role "+authority, ref, err)
	}
	return nil
}

func (r *FixtureRepo) InsertVerificationToken(ctx context.Context, accountID int64, token string) error {
	if _, err := r.q.ExecContext(ctx, qInsertVerificationToken, token, accountID); err != nil {
		return domain.ErrQueryFailed("insert verification token", "account "+strconv.FormatInt(accountID, 10), err)
	}
	return nil
}

func (r *FixtureRepo) Truncate(ctx context.Context) error {
	if _, err := r.q.ExecContext(ctx, qTruncate); err != nil {
		return domain.ErrQueryFailed("truncate tables", "all accounts", err)
	}
	return nil
}
