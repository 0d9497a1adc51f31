package middleware

import (
	"net/http"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/logger"
)

// AccessLog writes one structured line per request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		evt := logger.WithCtx(r.Context()).Info()
		if rec.status >= http.StatusInternalServerError {
			evt = logger.WithCtx(r.Context()).Error()
		}
		evt.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}
