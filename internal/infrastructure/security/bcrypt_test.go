package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	t.Parallel()

	for _, cost := range []int{0, -1, 99} {
		assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(cost).cost, "cost %d", cost)
	}
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(bcrypt.MinCost).cost)
}

func TestBcryptHasher_HashIsLoginCompatible(t *testing.T) {
	t.Parallel()

	hash, err := NewBcryptHasher(bcrypt.MinCost).Hash("P@ssw0rd123!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$2a$04$"), hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("P@ssw0rd123!")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))
}

func TestBcryptHasher_RejectsOverlongPassword(t *testing.T) {
	t.Parallel()

	_, err := NewBcryptHasher(bcrypt.MinCost).Hash(strings.Repeat("a", 73))
	assert.True(t, domain.Is(err, "invalid_field"))
}

func TestNewToken_UniqueUUIDs(t *testing.T) {
	t.Parallel()

	a, b := NewToken(), NewToken()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
