package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/dbx"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

const (
	qCountAccounts  = `SELECT COUNT(*) FROM user_account WHERE email = $1`
	qAccountEnabled = `SELECT enabled FROM user_account WHERE email = $1`
	qAccountLocked  = `SELECT locked FROM user_account WHERE email = $1`
	qAccountDetails = `
SELECT first_name, last_name, enabled, locked, failed_login_attempts
FROM user_account
WHERE email = $1`
	qEnableAccount = `UPDATE user_account SET enabled = TRUE WHERE email = $1`
)

// AccountRepo reads and updates user_account rows by exact email.
type AccountRepo struct {
	q dbx.DBTX
}

func NewAccountRepo(q dbx.DBTX) *AccountRepo {
	return &AccountRepo{q: q}
}

func (r *AccountRepo) CountByEmail(ctx context.Context, email string) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, qCountAccounts, email).Scan(&n); err != nil {
		return 0, domain.ErrQueryFailed("count accounts", email, err)
	}
	return n, nil
}

func (r *AccountRepo) Enabled(ctx context.Context, email string) (bool, error) {
	return r.flag(ctx, qAccountEnabled, "read enabled flag", email)
}

func (r *AccountRepo) Locked(ctx context.Context, email string) (bool, error) {
	return r.flag(ctx, qAccountLocked, "read locked flag", email)
}

// flag scans a single boolean column. A missing row reads as false.
func (r *AccountRepo) flag(ctx context.Context, q, op, email string) (bool, error) {
	var v bool
	err := r.q.QueryRowContext(ctx, q, email).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.ErrQueryFailed(op, email, err)
	}
	return v, nil
}

func (r *AccountRepo) Details(ctx context.Context, email string) (domain.AccountDetails, bool, error) {
	var (
		first, last sql.NullString
		d           domain.AccountDetails
	)
	err := r.q.QueryRowContext(ctx, qAccountDetails, email).
		Scan(&first, &last, &d.Enabled, &d.Locked, &d.FailedLoginAttempts)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AccountDetails{}, false, nil
	}
	if err != nil {
		return domain.AccountDetails{}, false, domain.ErrQueryFailed("read account details", email, err)
	}
	d.FirstName = first.String
	d.LastName = last.String
	return d, true, nil
}

// Enable sets enabled = TRUE. Zero matched rows is not an error.
func (r *AccountRepo) Enable(ctx context.Context, email string) error {
	if _, err := r.q.ExecContext(ctx, qEnableAccount, email); err != nil {
		return domain.ErrQueryFailed("enable account", email, err)
	}
	return nil
}
