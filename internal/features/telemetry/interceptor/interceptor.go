package telemetry_interceptor

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	telemetry_breadcrumbs "tentspace/internal/features/telemetry/breadcrumbs"
	telemetry_core "tentspace/internal/features/telemetry/core"
)

// maxCapturedBodyBytes bounds request/response bodies copied into breadcrumbs.
const maxCapturedBodyBytes = 2048

type Options struct {
	// IgnoredURLs are substrings; a request whose URL contains one is passed
	// through without a breadcrumb.
	IgnoredURLs []string
	// Body capture is off by default because bodies routinely carry PII.
	CaptureRequestBody  bool
	CaptureResponseBody bool
}

// Interceptor is an http.RoundTripper that records an http breadcrumb for
// every request it forwards. It only observes: responses and errors from the
// wrapped transport reach the caller unchanged.
type Interceptor struct {
	base     http.RoundTripper
	recorder telemetry_breadcrumbs.Recorder
	options  Options
	now      func() time.Time
}

func New(base http.RoundTripper, recorder telemetry_breadcrumbs.Recorder, options Options) *Interceptor {
	if base == nil {
		base = http.DefaultTransport
	}

	return &Interceptor{
		base:     base,
		recorder: recorder,
		options:  options,
		now:      time.Now,
	}
}

// Client returns an http.Client using the interceptor as its transport.
func (i *Interceptor) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: i, Timeout: timeout}
}

func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	if i.isIgnored(url) {
		return i.base.RoundTrip(req)
	}

	data := map[string]any{
		"url":    url,
		"method": req.Method,
	}

	if i.options.CaptureRequestBody {
		if body, ok := peekRequestBody(req); ok {
			data["request_body"] = body
		}
	}

	start := i.now()
	resp, err := i.base.RoundTrip(req)
	data["duration_ms"] = i.now().Sub(start).Milliseconds()

	if err != nil {
		data["error"] = err.Error()
		i.recorder.Add(telemetry_core.Breadcrumb{
			Category: telemetry_core.BreadcrumbCategoryHTTP,
			Message:  fmt.Sprintf("%s %s failed", req.Method, url),
			Level:    telemetry_core.BreadcrumbLevelError,
			Data:     data,
		})
		return resp, err
	}

	data["status_code"] = resp.StatusCode
	if i.options.CaptureResponseBody {
		if body, ok := peekResponseBody(resp); ok {
			data["response_body"] = body
		}
	}

	level := telemetry_core.BreadcrumbLevelInfo
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		level = telemetry_core.BreadcrumbLevelWarning
	}

	i.recorder.Add(telemetry_core.Breadcrumb{
		Category: telemetry_core.BreadcrumbCategoryHTTP,
		Message:  fmt.Sprintf("%s %s [%d]", req.Method, url, resp.StatusCode),
		Level:    level,
		Data:     data,
	})

	return resp, nil
}

func (i *Interceptor) isIgnored(url string) bool {
	for _, ignored := range i.options.IgnoredURLs {
		if ignored != "" && strings.Contains(url, ignored) {
			return true
		}
	}
	return false
}

// peekRequestBody reads a copy of the request body through GetBody so the
// body handed to the base transport is untouched.
func peekRequestBody(req *http.Request) (string, bool) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody == nil {
		return "", false
	}

	body, err := req.GetBody()
	if err != nil {
		return "", false
	}
	defer body.Close()

	buf, err := io.ReadAll(io.LimitReader(body, maxCapturedBodyBytes))
	if err != nil {
		return "", false
	}

	return string(buf), true
}

// peekResponseBody reads the head of the response body and stitches it back
// in front of the remaining stream.
func peekResponseBody(resp *http.Response) (string, bool) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return "", false
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, maxCapturedBodyBytes))
	resp.Body = &rejoinedBody{
		Reader: io.MultiReader(bytes.NewReader(head), resp.Body),
		closer: resp.Body,
	}
	if err != nil {
		return "", false
	}

	return string(head), true
}

type rejoinedBody struct {
	io.Reader
	closer io.Closer
}

func (b *rejoinedBody) Close() error {
	return b.closer.Close()
}
