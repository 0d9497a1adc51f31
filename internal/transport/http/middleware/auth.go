package middleware

import (
	"net/http"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-harness/internal/infrastructure/security"
)

type TokenVerifier interface {
	Verify(token string) (security.Claims, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Auth verifies Authorization: Bearer <token> and puts the caller into the
// request context.
func Auth(verifier TokenVerifier, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" {
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			scheme, raw, ok := strings.Cut(h, " ")
			raw = strings.TrimSpace(raw)
			if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				writeErr(w, r, domain.ErrTokenInvalid())
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			if strings.TrimSpace(claims.Subject) == "" {
				writeErr(w, r, domain.ErrTokenInvalid())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.Subject, claims.Role)))
		})
	}
}
