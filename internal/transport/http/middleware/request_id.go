package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/pkg/reqctx"
)

const HeaderXRequestID = "X-Request-Id"

// ids longer than this are replaced rather than echoed into logs
const maxRequestIDLen = 128

// RequestID reuses a sane caller-supplied X-Request-Id (test runners pass one
// per scenario) and otherwise mints a uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderXRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderXRequestID, id)
		next.ServeHTTP(w, r.WithContext(reqctx.WithRequestID(r.Context(), id)))
	})
}
