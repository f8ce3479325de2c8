package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// sink is one named destination of the handler chain.
type sink struct {
	name    string
	handler slog.Handler
}

// fanout delivers each record to every sink enabled for its level. A
// failing sink does not stop the others; its error carries the sink name.
type fanout struct {
	sinks []sink
}

func newFanout(sinks ...sink) *fanout {
	return &fanout{sinks: sinks}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) derive(fn func(slog.Handler) slog.Handler) *fanout {
	sinks := make([]sink, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = sink{name: s.name, handler: fn(s.handler)}
	}
	return &fanout{sinks: sinks}
}
