package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	telemetry_breadcrumbs "tentspace/internal/features/telemetry/breadcrumbs"
	telemetry_capture "tentspace/internal/features/telemetry/capture"
	telemetry_core "tentspace/internal/features/telemetry/core"
	telemetry_interceptor "tentspace/internal/features/telemetry/interceptor"
	telemetry_transport "tentspace/internal/features/telemetry/transport"
	"tentspace/internal/util/logger"
)

type Options struct {
	BreadcrumbCapacity int
	SampleRate         float64
	Release            string
	Environment        string
	// RelayURL is where records are delivered. Requests to it are never
	// recorded as breadcrumbs.
	RelayURL string
	// InterceptDefaultTransport also wraps http.DefaultTransport for code
	// that cannot be handed an instrumented client.
	InterceptDefaultTransport bool
	Interceptor               telemetry_interceptor.Options
	// ConsoleLevel is the minimum log level recorded as a console
	// breadcrumb. Defaults to warn.
	ConsoleLevel slog.Leveler
	MaxInFlight  int
}

// State owns every piece of process-wide telemetry: the breadcrumb buffer,
// the capture hook, the transport and the optional global interceptor.
// It is only reachable through Install, Current and Uninstall.
type State struct {
	buffer      *telemetry_breadcrumbs.Buffer
	interceptor *telemetry_interceptor.Interceptor
	hook        *telemetry_capture.Hook
	transport   *telemetry_transport.Transport

	interceptsGlobal bool
	detachConsole    func()
}

var (
	mu      sync.Mutex
	current *State
)

// Install creates and activates the process telemetry. Calling it again
// while installed returns the existing State unchanged.
func Install(options Options) *State {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		return current
	}

	buffer := telemetry_breadcrumbs.NewBuffer(options.BreadcrumbCapacity)

	interceptorOptions := options.Interceptor
	if relayPath := relayIgnorePattern(options.RelayURL); relayPath != "" {
		interceptorOptions.IgnoredURLs = append(
			append([]string{}, interceptorOptions.IgnoredURLs...),
			relayPath,
		)
	}

	transport := telemetry_transport.New(telemetry_transport.Config{
		Endpoint:    options.RelayURL,
		MaxInFlight: options.MaxInFlight,
	})

	hook := telemetry_capture.NewHook(telemetry_capture.Options{
		SampleRate:  options.SampleRate,
		Release:     options.Release,
		Environment: options.Environment,
		Breadcrumbs: buffer,
		Sender:      transport,
	})
	hook.Activate()

	state := &State{
		buffer:      buffer,
		interceptor: telemetry_interceptor.New(nil, buffer, interceptorOptions),
		hook:        hook,
		transport:   transport,
	}

	if options.InterceptDefaultTransport {
		state.interceptsGlobal = telemetry_interceptor.Install(buffer, interceptorOptions)
	}

	state.detachConsole = logger.AttachHandler(
		telemetry_breadcrumbs.NewSlogHandler(buffer, options.ConsoleLevel),
	)

	current = state
	return state
}

// Current returns the installed State or nil.
func Current() *State {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Uninstall tears down the installed State and waits for in-flight
// deliveries until ctx expires. It is a no-op when nothing is installed.
func Uninstall(ctx context.Context) error {
	mu.Lock()
	state := current
	current = nil
	mu.Unlock()

	if state == nil {
		return nil
	}

	state.hook.Deactivate()
	state.detachConsole()
	if state.interceptsGlobal {
		telemetry_interceptor.Uninstall()
	}

	return state.transport.Shutdown(ctx)
}

// AddBreadcrumb records a user action. It does nothing when telemetry is
// not installed.
func AddBreadcrumb(message string, data map[string]any) {
	state := Current()
	if state == nil {
		return
	}

	state.buffer.Add(telemetry_core.Breadcrumb{
		Category: telemetry_core.BreadcrumbCategoryUser,
		Message:  message,
		Level:    telemetry_core.BreadcrumbLevelInfo,
		Data:     data,
	})
}

func (s *State) Breadcrumbs() *telemetry_breadcrumbs.Buffer {
	return s.buffer
}

func (s *State) Hook() *telemetry_capture.Hook {
	return s.hook
}

func (s *State) Sender() telemetry_core.Sender {
	return s.transport
}

// HTTPClient returns a client whose requests are recorded as breadcrumbs.
func (s *State) HTTPClient(timeout time.Duration) *http.Client {
	return s.interceptor.Client(timeout)
}

// relayIgnorePattern reduces the relay URL to its path, which is what
// matches whether the relay is reached by host name or by address.
func relayIgnorePattern(relayURL string) string {
	if relayURL == "" {
		return ""
	}

	parsed, err := url.Parse(relayURL)
	if err != nil || parsed.Path == "" || parsed.Path == "/" {
		return relayURL
	}

	return parsed.Path
}
