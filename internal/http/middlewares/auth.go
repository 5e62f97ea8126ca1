package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/greenmarket/sso/internal/http/errors"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/token"
)

type ctxKey int

const sessionKey ctxKey = iota

// Session returns the verified session payload, or nil outside an
// authenticated route.
func Session(ctx context.Context) *token.SessionPayload {
	s, _ := ctx.Value(sessionKey).(*token.SessionPayload)
	return s
}

// WithAuth rejects requests without a valid bearer session token and puts
// the verified payload on the context.
func WithAuth(issuer *token.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("missing bearer token"))
				return
			}

			payload, err := issuer.VerifySessionToken(raw)
			if err != nil {
				if errors.Is(err, token.ErrExpired) {
					httperrors.WriteError(w, httperrors.ErrTokenExpired)
					return
				}
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, payload)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(payload.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
