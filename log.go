package rexo

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var (
	slogCtxKey = ctxKey{}
)

func logger(ctx context.Context) *slog.Logger {
	val := ctx.Value(slogCtxKey)
	if val == nil {
		return slog.New(noopHandler{})
	}
	logger, ok := val.(*slog.Logger)
	if !ok {
		return slog.New(noopHandler{})
	}
	return logger
}

// LoggingContext returns a copy of ctx that carries logger. Everything in
// this package logs to the logger in the context it's given, and stays quiet
// when there isn't one.
func LoggingContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, slogCtxKey, logger)
}

// withPageLogger returns a copy of ctx whose logger tags every line with the
// route being rendered and the slug it resolved to.
func withPageLogger(ctx context.Context, route, slug string, params []string) context.Context {
	return LoggingContext(ctx, logger(ctx).With(
		slog.Group("page",
			slog.String("route", route),
			slog.String("slug", slug),
			slog.Int("params", len(params)),
		),
	))
}

type noopHandler struct{}

func (noopHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (noopHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (n noopHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return n
}

func (n noopHandler) WithGroup(_ string) slog.Handler {
	return n
}
