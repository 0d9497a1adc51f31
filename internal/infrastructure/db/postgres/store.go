package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/application/harness"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/dbx"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// Store binds the account, token and fixture repositories to one query
// executor. A Store created by NewStore runs on the pool; the Store handed
// to an InTx callback runs on that transaction.
type Store struct {
	db *sql.DB
	q  dbx.DBTX
}

var _ harness.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Accounts() harness.AccountPort { return &AccountRepo{q: s.q} }
func (s *Store) Tokens() harness.TokenPort     { return &TokenRepo{q: s.q} }
func (s *Store) Fixtures() harness.FixturePort { return &FixtureRepo{q: s.q} }

// InTx runs fn inside a transaction. Nested calls reuse the outer one.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, st harness.Store) error) error {
	if s.db == nil {
		return fn(ctx, s)
	}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &Store{q: tx})
	})
	var de *domain.Error
	if err != nil && !errors.As(err, &de) {
		return domain.ErrTxFailed(err)
	}
	return err
}

// Ping reports whether the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}
