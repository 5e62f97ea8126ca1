package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol indicates a malformed or unexpected provider response
	// (missing token, non-2xx status, undecodable body). Fatal for the
	// whole flow; no partial state may be persisted.
	ErrProtocol = errors.New("provider protocol error")

	// ErrTokenExpired indicates the provider rejected the access token
	// (HTTP 401-equivalent). Revoke callers refresh and retry once.
	ErrTokenExpired = errors.New("provider access token expired")

	// ErrUnknownProvider indicates the provider name is not registered.
	ErrUnknownProvider = errors.New("unknown provider")
)

// ProtocolErrf wraps ErrProtocol with provider context.
func ProtocolErrf(name, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", name, fmt.Sprintf(format, args...), ErrProtocol)
}
