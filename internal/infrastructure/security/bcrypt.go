package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// bcrypt only reads the first 72 bytes of a password.
const maxPasswordBytes = 72

// BcryptHasher writes $2a$ hashes, the prefix the user-management library's
// password encoder checks, so fixture accounts can log in through the real
// login form.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps an out-of-range cost to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", domain.ErrInvalidField("password", "longer than 72 bytes")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", domain.ErrHashFailed(err)
	}
	return string(b), nil
}
