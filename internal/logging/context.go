package logging

import (
	"context"
	"log/slog"
)

// LevelTrace is a custom level below Debug for very chatty output.
const LevelTrace = slog.LevelDebug - 4

// LevelFromVerbosity maps the -v flag count to a slog level.
// 0 is Info, 1 (-v) is Debug, 2+ (-vv) is Trace.
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelInfo
	case v == 1:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

type contextKey struct{}

// NewContext returns a context carrying the logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger carried by ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
