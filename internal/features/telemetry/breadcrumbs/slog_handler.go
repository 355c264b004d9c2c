package telemetry_breadcrumbs

import (
	"context"
	"log/slog"

	telemetry_core "tentspace/internal/features/telemetry/core"
)

// SlogHandler turns log records into console breadcrumbs. It produces no
// output of its own and is meant to be attached next to the real handler.
type SlogHandler struct {
	recorder Recorder
	level    slog.Leveler
	attrs    []slog.Attr
	group    string
}

func NewSlogHandler(recorder Recorder, level slog.Leveler) *SlogHandler {
	if level == nil {
		level = slog.LevelWarn
	}
	return &SlogHandler{recorder: recorder, level: level}
}

func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	data := make(map[string]any, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		data[h.key(attr.Key)] = attr.Value.Resolve().Any()
	}
	record.Attrs(func(attr slog.Attr) bool {
		data[h.key(attr.Key)] = attr.Value.Resolve().Any()
		return true
	})
	for key, value := range data {
		if err, ok := value.(error); ok {
			data[key] = err.Error()
		}
	}

	crumb := telemetry_core.Breadcrumb{
		Timestamp: record.Time.UTC(),
		Category:  telemetry_core.BreadcrumbCategoryConsole,
		Message:   record.Message,
		Level:     levelFromSlog(record.Level),
	}
	if len(data) > 0 {
		crumb.Data = data
	}

	h.recorder.Add(crumb)
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	copied := *h
	copied.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &copied
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	copied := *h
	copied.group = h.key(name)
	return &copied
}

func (h *SlogHandler) key(name string) string {
	if h.group == "" {
		return name
	}
	return h.group + "." + name
}

func levelFromSlog(level slog.Level) telemetry_core.BreadcrumbLevel {
	switch {
	case level >= slog.LevelError:
		return telemetry_core.BreadcrumbLevelError
	case level >= slog.LevelWarn:
		return telemetry_core.BreadcrumbLevelWarning
	default:
		return telemetry_core.BreadcrumbLevelInfo
	}
}
