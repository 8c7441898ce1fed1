package logging

import (
	"context"
	"log/slog"
)

// ContextProvider is a function that returns dynamic context attributes.
type ContextProvider func() []slog.Attr

type turnKey struct{}

// WithTurn returns a context whose log records carry the turn number.
func WithTurn(ctx context.Context, turn uint) context.Context {
	return context.WithValue(ctx, turnKey{}, turn)
}

// TurnFromContext returns the turn number stored by WithTurn.
func TurnFromContext(ctx context.Context) (uint, bool) {
	if ctx == nil {
		return 0, false
	}
	turn, ok := ctx.Value(turnKey{}).(uint)
	return turn, ok
}

// ContextHandler wraps another handler and injects dynamic context
// attributes: the provider's attributes on every record, and the turn
// number when the record was logged with a WithTurn context.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler creates a handler that adds dynamic context to each record.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds dynamic context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		if attrs := h.provider(); len(attrs) > 0 {
			r.AddAttrs(attrs...)
		}
	}
	if turn, ok := TurnFromContext(ctx); ok {
		r.AddAttrs(slog.Uint64("turn", uint64(turn)))
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		inner:    h.inner.WithAttrs(attrs),
		provider: h.provider,
	}
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{
		inner:    h.inner.WithGroup(name),
		provider: h.provider,
	}
}
