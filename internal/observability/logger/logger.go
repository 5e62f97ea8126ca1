// Package logger wraps zap behind a process-wide singleton with context
// propagation. Init is called once from main; everywhere else uses From(ctx)
// or the field helpers.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init initializes the singleton logger. Idempotent: only the first call has
// any effect. Call it at startup (main.go).
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L returns the singleton logger. If Init was never called it builds a
// default dev/info logger.
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Named returns a logger tagged with a component name.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered entries. Defer from main.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
