// Package errors is the caller-facing error taxonomy: stable classification
// codes plus human-readable messages; internal causes never leave the
// process.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AppError is the stable caller-facing error shape: a classification code,
// a human-readable message, and the HTTP status. Internal causes are kept
// for logs and never serialized.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail returns a copy with extra detail, leaving the base error
// untouched.
func (e *AppError) WithDetail(detail string) *AppError {
	out := *e
	out.Detail = detail
	return &out
}

// WithCause returns a copy carrying the original error for logging.
func (e *AppError) WithCause(err error) *AppError {
	out := *e
	out.Err = err
	return &out
}

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is missing required parameters or malformed.",
		HTTPStatus: http.StatusBadRequest,
	}
	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required.",
		HTTPStatus: http.StatusUnauthorized,
	}
	ErrTokenExpired = &AppError{
		Code:       "TOKEN_EXPIRED",
		Message:    "The token has expired.",
		HTTPStatus: http.StatusUnauthorized,
	}
	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "The token is invalid or malformed.",
		HTTPStatus: http.StatusUnauthorized,
	}
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource was not found.",
		HTTPStatus: http.StatusNotFound,
	}
	ErrUnknownProvider = &AppError{
		Code:       "UNKNOWN_PROVIDER",
		Message:    "The requested SSO provider is not supported.",
		HTTPStatus: http.StatusBadRequest,
	}
	ErrProviderProtocol = &AppError{
		Code:       "PROVIDER_PROTOCOL",
		Message:    "The SSO provider returned an unexpected response.",
		HTTPStatus: http.StatusBadGateway,
	}
	ErrLinkConflict = &AppError{
		Code:       "LINK_CONFLICT",
		Message:    "This social account is already linked.",
		HTTPStatus: http.StatusConflict,
	}
	ErrLinkRequired = &AppError{
		Code:       "LINK_REQUIRED",
		Message:    "An account with this phone number already exists. Sign in and link the provider explicitly.",
		HTTPStatus: http.StatusConflict,
	}
	ErrAccountSuspended = &AppError{
		Code:       "ACCOUNT_SUSPENDED",
		Message:    "This account is suspended.",
		HTTPStatus: http.StatusForbidden,
	}
	ErrAccountInactive = &AppError{
		Code:       "ACCOUNT_INACTIVE",
		Message:    "This account is not active.",
		HTTPStatus: http.StatusForbidden,
	}
	ErrInternal = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "An internal error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// FromError coerces any error into an AppError, defaulting to internal.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError serializes an error with its mapped status.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}
