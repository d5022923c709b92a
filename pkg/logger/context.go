package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one request-scoped attribute out of ctx, such as
// the request ID or the calling account.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// LogHandlerDecorator adds extractor attributes to every record. An
// extracted key is skipped when the record or a WithAttrs call already
// carries it, so an explicit account attribute wins over the one found
// in the request context.
type LogHandlerDecorator struct {
	next       slog.Handler
	extractors []ContextExtractor
	bound      map[string]struct{}
}

// NewLogHandlerDecorator wraps next. Nil extractors are dropped.
func NewLogHandlerDecorator(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	h := &LogHandlerDecorator{next: next}
	for _, ex := range extractors {
		if ex != nil {
			h.extractors = append(h.extractors, ex)
		}
	}
	return h
}

func (h *LogHandlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LogHandlerDecorator) Handle(ctx context.Context, rec slog.Record) error {
	if len(h.extractors) == 0 || ctx == nil {
		return h.next.Handle(ctx, rec)
	}

	var present map[string]struct{}
	if rec.NumAttrs() > 0 {
		present = make(map[string]struct{}, rec.NumAttrs())
		rec.Attrs(func(a slog.Attr) bool {
			present[a.Key] = struct{}{}
			return true
		})
	}

	for _, ex := range h.extractors {
		attr, ok := ex(ctx)
		if !ok || attr.Equal(slog.Attr{}) {
			continue
		}
		if _, dup := h.bound[attr.Key]; dup {
			continue
		}
		if _, dup := present[attr.Key]; dup {
			continue
		}
		rec.AddAttrs(attr)
	}
	return h.next.Handle(ctx, rec)
}

func (h *LogHandlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	bound := make(map[string]struct{}, len(h.bound)+len(attrs))
	for k := range h.bound {
		bound[k] = struct{}{}
	}
	for _, a := range attrs {
		bound[a.Key] = struct{}{}
	}
	return &LogHandlerDecorator{next: h.next.WithAttrs(attrs), extractors: h.extractors, bound: bound}
}

// WithGroup nests later attributes, so keys bound outside the group no
// longer collide with extracted ones.
func (h *LogHandlerDecorator) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &LogHandlerDecorator{next: h.next.WithGroup(name), extractors: h.extractors}
}

// NewNope returns a logger that drops every record. Packages use it when
// no logger option is given.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
