package httpapi

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Options fields are unset.
const defaultMaxBodyBytes int64 = 1 << 20

// Options configures the HTTP layer. The zero value is usable.
type Options struct {
	// BaseContext is a process-level context canceled on shutdown; in-flight
	// generations are canceled with it. Defaults to Background.
	BaseContext context.Context
	// Logger receives access and generation logs. Defaults to a no-op logger.
	Logger *zerolog.Logger
	// MaxBodyBytes bounds JSON request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
	// RequestTimeout bounds one generation (0 disables).
	RequestTimeout time.Duration
	// AllowedOrigin enables CORS for a single origin when set.
	AllowedOrigin string
	// MaxAge is the CORS preflight cache duration.
	MaxAge time.Duration
	// LogLevel is the default per-request generation log level.
	LogLevel LogLevel
}

func (o Options) withDefaults() Options {
	if o.BaseContext == nil {
		o.BaseContext = context.Background()
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	return o
}
