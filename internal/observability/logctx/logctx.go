// Package logctx carries the request- or event-scoped logger through a context.
// The HTTP middleware seeds it with request_id and trace ids, the auth middleware adds
// user_id, and the event-bus subscriber seeds it with the event id; repositories, the
// payment gateway and the mailer read it back so their lines share those fields.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
)

type loggerKey struct{}

func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From returns nil when nothing was seeded.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(observability.Logger)
	return logger
}

// FromOr never returns nil: the seeded logger, then fallback, then a nop logger.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	if fallback == nil {
		return observability.NopLogger()
	}
	return fallback
}

// Enrich adds fields for everything downstream, e.g. user_id once a bearer token checks out.
func Enrich(ctx context.Context, fallback observability.Logger, fields ...observability.Field) context.Context {
	return With(ctx, FromOr(ctx, fallback).With(fields...))
}
