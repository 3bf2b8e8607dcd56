package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithLogger stores l on ctx; the request logger middleware uses it to hand
// request-scoped attributes to the header and session provider.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
