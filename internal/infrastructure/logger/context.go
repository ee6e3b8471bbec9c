package logger

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return L()
}

func WithOperation(ctx context.Context, operation string) context.Context {
	logger := FromContext(ctx).With(
		"operation", operation,
		"op_id", shortID(),
	)
	return ContextWithLogger(ctx, logger)
}

// WithRun tags every later log line with a run id unique to this invocation.
func WithRun(ctx context.Context) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With("run_id", uuid.NewString()))
}

func WithRound(ctx context.Context, round int) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With("round", round))
}

func shortID() string {
	id := uuid.New()
	return id.String()[:8]
}
