package telemetry_boundary

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	telemetry_capture "tentspace/internal/features/telemetry/capture"
	telemetry_core "tentspace/internal/features/telemetry/core"
	"tentspace/internal/util/logger"
)

type State int

const (
	StateHealthy State = iota
	StateErrored
)

func (s State) String() string {
	if s == StateErrored {
		return "errored"
	}
	return "healthy"
}

type Options struct {
	// Hook builds the record. Required.
	Hook *telemetry_capture.Hook
	// Sender receives the record directly, without sampling. Required.
	Sender telemetry_core.Sender
	// OnError is called with the recovered error before it is reported.
	OnError func(err error, componentStack string)
	// Fallback replaces the default fallback page.
	Fallback http.HandlerFunc
	Logger   *slog.Logger
}

// Boundary supervises a render. The first panic moves it to StateErrored,
// which is terminal: every later Render shows the fallback view. Recovery
// means mounting a new Boundary, which for pages happens on reload.
type Boundary struct {
	mu             sync.Mutex
	state          State
	options        Options
	componentStack string
	logger         *slog.Logger
}

// New mounts a boundary over the subtree described by componentStack,
// innermost component first, one per line.
func New(options Options, componentStack string) *Boundary {
	log := options.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &Boundary{
		options:        options,
		componentStack: componentStack,
		logger:         log.With("component", "error_boundary"),
	}
}

func (b *Boundary) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Render runs render against a buffer and copies the result to w. If render
// panics, or the boundary has already failed, the fallback view is written
// instead.
func (b *Boundary) Render(w http.ResponseWriter, r *http.Request, render func(http.ResponseWriter, *http.Request)) {
	buffer := newBufferedResponse()

	if b.run(r.Context(), func() { render(buffer, r) }) {
		buffer.writeTo(w)
		return
	}

	b.renderFallback(w, r)
}

func (b *Boundary) run(ctx context.Context, render func()) (ok bool) {
	if b.State() == StateErrored {
		return false
	}

	defer func() {
		value := recover()
		if value == nil {
			return
		}

		ok = false
		b.fail(ctx, value)
	}()

	render()
	return true
}

// fail must be called from the deferred function that recovered value.
func (b *Boundary) fail(ctx context.Context, value any) {
	b.mu.Lock()
	b.state = StateErrored
	b.mu.Unlock()

	err, isErr := value.(error)
	if !isErr {
		err = fmt.Errorf("%v", value)
	}

	b.logger.Error("render failed", "error", err)

	if b.options.OnError != nil {
		b.notify(err)
	}

	if b.options.Hook == nil || b.options.Sender == nil {
		return
	}

	record := b.options.Hook.BuildRenderRecord(ctx, value, b.componentStack)
	if record.Tags == nil {
		record.Tags = map[string]string{}
	}
	record.Tags["errorBoundary"] = "true"
	record.Tags["componentStack"] = "available"

	b.options.Sender.Send(record)
}

func (b *Boundary) notify(err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("error boundary callback panicked", "panic", r)
		}
	}()

	b.options.OnError(err, b.componentStack)
}

func (b *Boundary) renderFallback(w http.ResponseWriter, r *http.Request) {
	if b.options.Fallback != nil {
		b.options.Fallback(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(fallbackPage))
}

const fallbackPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Something went wrong</title>
</head>
<body>
<main role="alert">
<h1>Something went wrong</h1>
<p>An unexpected error occurred while loading this page. It has been reported.</p>
<button type="button" onclick="window.location.reload()">Reload page</button>
</main>
</body>
</html>
`
