// Package cache provides a small multi-backend cache abstraction.
//
// Supports:
//   - Memory (in-process, for development/testing)
//   - Redis (shared, for production)
//
// The SSO flow uses it as a one-shot guard: consumed signup-token jtis live
// here until the token would have expired anyway.
package cache

import (
	"context"
	"time"
)

// Client defines the cache operations.
type Client interface {
	// Get fetches a value. Returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with a TTL. ttl 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX stores the value only if the key is absent; reports whether the
	// write happened. This is the one-shot primitive.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	Delete(ctx context.Context, key string) error

	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Driver string // "memory" | "redis"
	Addr   string
	DB     int
	Prefix string
}

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "cache: key not found" }

// New builds a client for the configured driver. Unknown drivers fall back
// to memory.
func New(cfg Config) Client {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg.Addr, cfg.DB, cfg.Prefix)
	default:
		return NewMemory(cfg.Prefix)
	}
}
