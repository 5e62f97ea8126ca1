package logger

import (
	"time"

	"go.uber.org/zap"
)

// Standard fields - HTTP

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// Standard fields - domain

// UserID tags an entry with the local user id.
func UserID(v int64) zap.Field { return zap.Int64("user_id", v) }

// Provider tags an entry with the SSO provider name.
func Provider(v string) zap.Field { return zap.String("provider", v) }

// AccountID tags an entry with a social account row id.
func AccountID(v int64) zap.Field { return zap.Int64("account_id", v) }

// Standard fields - system

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Count(v int) zap.Field { return zap.Int("count", v) }

func String(key, v string) zap.Field { return zap.String(key, v) }
