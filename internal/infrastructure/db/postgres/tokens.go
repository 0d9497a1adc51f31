package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/dbx"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// Tokens are correlated to accounts through user_id; every statement
// resolves the id from the email in a subquery.
const (
	qHasVerificationToken = `
SELECT EXISTS (
    SELECT 1 FROM verification_token
    WHERE user_id = (SELECT id FROM user_account WHERE email = $1)
)`
	qHasPasswordResetToken = `
SELECT EXISTS (
    SELECT 1 FROM password_reset_token
    WHERE user_id = (SELECT id FROM user_account WHERE email = $1)
)`
	qVerificationToken = `
SELECT token FROM verification_token
WHERE user_id = (SELECT id FROM user_account WHERE email = $1)
ORDER BY id DESC
LIMIT 1`
	qDeleteVerificationToken = `
DELETE FROM verification_token
WHERE user_id = (SELECT id FROM user_account WHERE email = $1)`
	qUpsertPasswordResetToken = `
INSERT INTO password_reset_token (token, user_id, expiry_date)
SELECT $2, id, NOW() + INTERVAL '24 hours' FROM user_account WHERE email = $1
ON CONFLICT (user_id) DO UPDATE
SET token = EXCLUDED.token, expiry_date = EXCLUDED.expiry_date`
)

// TokenRepo reads and mutates verification and password-reset tokens.
type TokenRepo struct {
	q dbx.DBTX
}

func NewTokenRepo(q dbx.DBTX) *TokenRepo {
	return &TokenRepo{q: q}
}

func (r *TokenRepo) HasVerificationToken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, qHasVerificationToken, "check verification token", email)
}

func (r *TokenRepo) HasPasswordResetToken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, qHasPasswordResetToken, "check password reset token", email)
}

func (r *TokenRepo) exists(ctx context.Context, q, op, email string) (bool, error) {
	var ok bool
	if err := r.q.QueryRowContext(ctx, q, email).Scan(&ok); err != nil {
		return false, domain.ErrQueryFailed(op, email, err)
	}
	return ok, nil
}

func (r *TokenRepo) VerificationToken(ctx context.Context, email string) (string, bool, error) {
	var tok string
	err := r.q.QueryRowContext(ctx, qVerificationToken, email).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.ErrQueryFailed("read verification token", email, err)
	}
	return tok, true, nil
}

func (r *TokenRepo) DeleteVerificationToken(ctx context.Context, email string) error {
	if _, err := r.q.ExecContext(ctx, qDeleteVerificationToken, email); err != nil {
		return domain.ErrQueryFailed("delete verification token", email, err)
	}
	return nil
}

// CreatePasswordResetToken replaces any existing reset token for the account.
func (r *TokenRepo) CreatePasswordResetToken(ctx context.Context, email, token string) (bool, error) {
	res, err := r.q.ExecContext(ctx, qUpsertPasswordResetToken, email, token)
	if err != nil {
		return false, domain.ErrQueryFailed("create password reset token", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.ErrQueryFailed("create password reset token", email, err)
	}
	return n > 0, nil
}
