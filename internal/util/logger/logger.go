package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	loggerInstance *slog.Logger
	once           sync.Once
	fanout         = &fanoutHandler{}
)

// GetLogger returns the process-wide logger. Handlers attached later with
// AttachHandler also receive every record logged through it.
func GetLogger() *slog.Logger {
	once.Do(func() {
		fanout.primary = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: ParseLevel(os.Getenv("LOG_LEVEL")),
		})
		fanout.extra = &atomic.Pointer[[]slog.Handler]{}
		loggerInstance = slog.New(fanout)
	})

	return loggerInstance
}

// AttachHandler registers an additional handler and returns a function that
// detaches it again.
func AttachHandler(handler slog.Handler) func() {
	GetLogger()

	fanout.mu.Lock()
	defer fanout.mu.Unlock()

	current := fanout.handlers()
	next := make([]slog.Handler, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, handler)
	fanout.extra.Store(&next)

	return func() {
		fanout.mu.Lock()
		defer fanout.mu.Unlock()

		current := fanout.handlers()
		remaining := make([]slog.Handler, 0, len(current))
		for _, h := range current {
			if h != handler {
				remaining = append(remaining, h)
			}
		}
		fanout.extra.Store(&remaining)
	}
}

// ParseLevel converts "debug", "info", "warn" or "error" to a slog.Level.
// Unknown strings default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type fanoutHandler struct {
	primary slog.Handler
	extra   *atomic.Pointer[[]slog.Handler]
	mu      sync.Mutex
}

func (f *fanoutHandler) handlers() []slog.Handler {
	if f.extra == nil {
		return nil
	}
	if p := f.extra.Load(); p != nil {
		return *p
	}
	return nil
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if f.primary.Enabled(ctx, level) {
		return true
	}
	for _, h := range f.handlers() {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	if f.primary.Enabled(ctx, record.Level) {
		firstErr = f.primary.Handle(ctx, record)
	}

	for _, h := range f.handlers() {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// WithAttrs and WithGroup only decorate the primary handler. Attached handlers
// see the record without the derived logger's attributes.
func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{parent: f, primary: f.primary.WithAttrs(attrs)}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	return &derivedHandler{parent: f, primary: f.primary.WithGroup(name)}
}

type derivedHandler struct {
	parent  *fanoutHandler
	primary slog.Handler
}

func (d *derivedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if d.primary.Enabled(ctx, level) {
		return true
	}
	for _, h := range d.parent.handlers() {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (d *derivedHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	if d.primary.Enabled(ctx, record.Level) {
		firstErr = d.primary.Handle(ctx, record)
	}

	for _, h := range d.parent.handlers() {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (d *derivedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{parent: d.parent, primary: d.primary.WithAttrs(attrs)}
}

func (d *derivedHandler) WithGroup(name string) slog.Handler {
	return &derivedHandler{parent: d.parent, primary: d.primary.WithGroup(name)}
}
