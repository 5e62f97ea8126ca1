// Package handlers holds the HTTP entry points for the SSO flows. Handlers
// decode, delegate to the sso services, and translate domain errors into the
// caller-facing taxonomy.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/greenmarket/sso/internal/domain/repository"
	httperrors "github.com/greenmarket/sso/internal/http/errors"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/provider"
	"github.com/greenmarket/sso/internal/sso"
	"github.com/greenmarket/sso/internal/token"
)

const maxBodySize = 32 << 10 // 32KB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into dst. On failure it writes the
// error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return false
	}
	return true
}

type suspensionDetail struct {
	Reason    string     `json:"reason"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Permanent bool       `json:"permanent"`
}

type suspendedResponse struct {
	Code       string           `json:"code"`
	Message    string           `json:"message"`
	Suspension suspensionDetail `json:"suspension"`
}

// writeDomainError maps service-layer errors onto the stable taxonomy.
// Anything unrecognized is logged and becomes a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var suspended *sso.SuspendedError
	if errors.As(err, &suspended) {
		detail := suspensionDetail{
			Reason:    suspended.Reason,
			Permanent: suspended.Permanent,
		}
		if !suspended.Permanent {
			deadline := suspended.Deadline
			detail.Deadline = &deadline
		}
		writeJSON(w, httperrors.ErrAccountSuspended.HTTPStatus, suspendedResponse{
			Code:       httperrors.ErrAccountSuspended.Code,
			Message:    httperrors.ErrAccountSuspended.Message,
			Suspension: detail,
		})
		return
	}

	switch {
	case errors.Is(err, sso.ErrRequiresLink):
		httperrors.WriteError(w, httperrors.ErrLinkRequired)
	case errors.Is(err, sso.ErrInactiveAccount):
		httperrors.WriteError(w, httperrors.ErrAccountInactive)
	case errors.Is(err, provider.ErrUnknownProvider):
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)
	case errors.Is(err, provider.ErrTokenExpired), errors.Is(err, provider.ErrProtocol):
		httperrors.WriteError(w, httperrors.ErrProviderProtocol)
	case errors.Is(err, token.ErrExpired):
		httperrors.WriteError(w, httperrors.ErrTokenExpired)
	case errors.Is(err, token.ErrInvalid):
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)
	case errors.Is(err, repository.ErrConflict):
		httperrors.WriteError(w, httperrors.ErrLinkConflict)
	case errors.Is(err, repository.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case errors.Is(err, repository.ErrInvalidInput):
		httperrors.WriteError(w, httperrors.ErrBadRequest)
	default:
		logger.From(r.Context()).Error("unhandled service error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
