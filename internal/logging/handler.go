package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// SwappableHandler delegates to a slog.Handler that can be replaced at
// runtime without invalidating loggers already handed out.
type SwappableHandler struct {
	handler atomic.Pointer[slog.Handler]
}

// NewSwappableHandler creates a handler delegating to initial.
func NewSwappableHandler(initial slog.Handler) *SwappableHandler {
	sh := &SwappableHandler{}
	sh.handler.Store(&initial)
	return sh
}

// Swap replaces the delegate.
func (sh *SwappableHandler) Swap(next slog.Handler) {
	sh.handler.Store(&next)
}

func (sh *SwappableHandler) current() slog.Handler {
	return *sh.handler.Load()
}

func (sh *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return sh.current().Enabled(ctx, level)
}

func (sh *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return sh.current().Handle(ctx, r)
}

// WithAttrs binds attrs to the current delegate. Children created before a
// Swap keep the delegate they were derived from.
func (sh *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewSwappableHandler(sh.current().WithAttrs(attrs))
}

func (sh *SwappableHandler) WithGroup(name string) slog.Handler {
	return NewSwappableHandler(sh.current().WithGroup(name))
}
