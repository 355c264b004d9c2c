package telemetry_interceptor

import (
	"net/http"
	"sync"

	telemetry_breadcrumbs "tentspace/internal/features/telemetry/breadcrumbs"
)

// Code that calls http.Get or uses http.DefaultClient has no injection
// point, so Install swaps http.DefaultTransport for an Interceptor. This file
// is the only place that mutates the global.
var (
	globalMu          sync.Mutex
	installed         *Interceptor
	originalTransport http.RoundTripper
)

// Install wraps http.DefaultTransport. It returns false and changes nothing
// when an interceptor is already installed.
func Install(recorder telemetry_breadcrumbs.Recorder, options Options) bool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if installed != nil {
		return false
	}

	originalTransport = http.DefaultTransport
	installed = New(originalTransport, recorder, options)
	http.DefaultTransport = installed

	return true
}

// Uninstall restores the transport captured by Install. Safe to call when
// nothing is installed.
func Uninstall() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if installed == nil {
		return
	}

	http.DefaultTransport = originalTransport
	installed = nil
	originalTransport = nil
}

func IsInstalled() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return installed != nil
}
