package security

import "github.com/google/uuid"

// NewToken returns a random UUID, the format the system under test uses for
// verification and password-reset tokens.
func NewToken() string {
	return uuid.NewString()
}
