package harness

import (
	"context"
	"errors"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

var errNoTokenGenerator = errors.New("no token generator configured")

// Fixtures seeds and clears harness tables directly.
type Fixtures struct {
	store    Store
	hasher   PasswordHasher
	newToken TokenGenerator
}

func NewFixtures(store Store, hasher PasswordHasher, newToken TokenGenerator) *Fixtures {
	return &Fixtures{store: store, hasher: hasher, newToken: newToken}
}

// CreateAccount inserts the account, its roles and, for accounts that are not
// yet enabled, a pending verification token. It returns the new account id.
func (f *Fixtures) CreateAccount(ctx context.Context, in domain.NewAccount) (int64, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return 0, domain.ErrMissingField("email")
	}
	if in.Password == "" {
		return 0, domain.ErrMissingField("password")
	}
	roles := in.Roles
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}
	for _, r := range roles {
		if !r.Valid() {
			return 0, domain.ErrInvalidField("roles", "unknown role "+string(r))
		}
	}
	if !in.Enabled && f.newToken == nil {
		return 0, domain.ErrInternal(errNoTokenGenerator)
	}

	hash, err := f.hasher.Hash(in.Password)
	if err != nil {
		return 0, err
	}

	var id int64
	err = f.store.InTx(ctx, func(ctx context.Context, tx Store) error {
		var err error
		id, err = tx.Fixtures().InsertAccount(ctx, domain.AccountRow{
			Email:        in.Email,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			PasswordHash: hash,
			Enabled:      in.Enabled,
			Locked:       in.Locked,
		})
		if err != nil {
			return err
		}
		for _, r := range roles {
			if err := tx.Fixtures().GrantRole(ctx, id, domain.Authority(r)); err != nil {
				return err
			}
		}
		if !in.Enabled {
			return tx.Fixtures().InsertVerificationToken(ctx, id, f.newToken())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Reset removes every account, token and role grant.
func (f *Fixtures) Reset(ctx context.Context) error {
	return f.store.Fixtures().Truncate(ctx)
}
