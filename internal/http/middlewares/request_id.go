package middlewares

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/greenmarket/sso/internal/observability/logger"
)

// WithRequestID propagates X-Request-ID or generates one, exposes it on the
// response, and injects a request-scoped logger into the context.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			l := logger.From(r.Context()).With(logger.RequestID(rid))
			next.ServeHTTP(w, r.WithContext(logger.ToContext(r.Context(), l)))
		})
	}
}
