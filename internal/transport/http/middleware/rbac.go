package middleware

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// RequireAtLeast admits callers whose role covers minRole. It reads the role
// Auth stored, so Auth must be mounted first.
func RequireAtLeast(minRole domain.Role, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			switch {
			case !ok:
				writeErr(w, r, domain.ErrTokenInvalid())
			case !role.Covers(minRole):
				writeErr(w, r, domain.ErrInsufficientRole(string(minRole)))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
