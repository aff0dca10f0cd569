package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys defined in this package.
// Using an unexported type prevents collisions with keys from other packages.
type contextKey int

// loggerContextKey is the context key under which a request-scoped logger
// is stored.
const loggerContextKey contextKey = iota

// WithLogger returns a new context carrying the given logger. Handlers and
// middleware use this to propagate a logger enriched with request-scoped
// attributes (such as a trace ID) down to services and stores.
//
// Panics if logger is nil, since storing a nil logger would turn every
// downstream FromContext call into a latent nil dereference.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		panic("logger cannot be nil")
	}

	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext retrieves the logger stored in the context, or the process
// default logger when the context carries none. It never returns nil.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, nil)
}

// FromContextOrDefault retrieves the logger stored in the context. When the
// context carries no logger it returns the provided fallback, and when the
// fallback is also nil it returns the process default logger. It never
// returns nil, so callers can use the result without checking.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}

	if fallback != nil {
		return fallback
	}

	return slog.Default()
}
