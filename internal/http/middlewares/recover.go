package middlewares

import (
	"fmt"
	"net/http"

	"github.com/greenmarket/sso/internal/http/errors"
	"github.com/greenmarket/sso/internal/observability/logger"
)

// WithRecover turns panics into 500 responses instead of crashing the
// process.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.Op("recover"),
						logger.Path(r.URL.Path),
						logger.String("panic", fmt.Sprint(rec)),
					)
					errors.WriteError(w, errors.ErrInternal.WithDetail("panic recovered"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
