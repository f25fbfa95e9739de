package logging

import (
	"context"
	"log/slog"
)

// MultiHandler fans each record out to several handlers, typically the
// console handler plus the JSON --log-file handler. Each child applies its
// own level filtering.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler wraps the given handlers into one.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled reports true when any child would accept the record.
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range h.handlers {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers the record to every child that accepts its level.
// All children are attempted; the first error encountered is returned.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, child := range h.handlers {
		if !child.Enabled(ctx, r.Level) {
			continue
		}
		if err := child.Handle(ctx, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs applies the attributes to every child.
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.apply(func(child slog.Handler) slog.Handler {
		return child.WithAttrs(attrs)
	})
}

// WithGroup applies the group to every child.
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return h.apply(func(child slog.Handler) slog.Handler {
		return child.WithGroup(name)
	})
}

func (h *MultiHandler) apply(f func(slog.Handler) slog.Handler) *MultiHandler {
	children := make([]slog.Handler, len(h.handlers))
	for i, child := range h.handlers {
		children[i] = f(child)
	}
	return NewMultiHandler(children...)
}
