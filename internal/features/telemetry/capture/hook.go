package telemetry_capture

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"
	"tentspace/internal/util/logger"
)

type Options struct {
	// SampleRate is the probability in [0, 1] that an automatic or manual
	// capture is forwarded.
	SampleRate  float64
	Release     string
	Environment string
	Breadcrumbs telemetry_core.BreadcrumbSource
	Sender      telemetry_core.Sender
	Logger      *slog.Logger
	// Random returns a value in [0, 1). Tests replace it to pin sampling.
	Random func() float64
	Now    func() time.Time
}

type LogOptions struct {
	Severity telemetry_core.Severity
	Tags     map[string]string
	Extra    map[string]any
	User     *telemetry_core.UserContext
}

// Hook turns panics, errors from unsupervised goroutines and explicit
// reports into ErrorRecords and hands them to a Sender.
//
// Automatic capture (Recover, Go, GoErr) only reports while the hook is
// active. Manual reporting (CaptureError, LogError) always reports. Both pass
// through the sampling gate.
type Hook struct {
	options   Options
	logger    *slog.Logger
	active    atomic.Bool
	sessionID string
}

func NewHook(options Options) *Hook {
	if options.Random == nil {
		options.Random = rand.Float64
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	log := options.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &Hook{
		options:   options,
		logger:    log.With("component", "error_capture"),
		sessionID: telemetry_core.NewTimestampedID(options.Now()),
	}
}

func (h *Hook) Activate() {
	h.active.Store(true)
}

func (h *Hook) Deactivate() {
	h.active.Store(false)
}

func (h *Hook) IsActive() bool {
	return h.active.Load()
}

// SessionID is stable for the lifetime of the hook.
func (h *Hook) SessionID() string {
	return h.sessionID
}

// Recover must be deferred directly:
//
//	defer hook.Recover(ctx)
//
// It stops the panic and, while the hook is active, reports it as an
// uncaught error.
func (h *Hook) Recover(ctx context.Context) {
	value := recover()
	if value == nil {
		return
	}

	h.handlePanic(ctx, value, callers(1))
}

// Go runs fn on a new goroutine whose panics are reported instead of
// crashing the process.
func (h *Hook) Go(ctx context.Context, fn func()) {
	go func() {
		defer h.Recover(ctx)
		fn()
	}()
}

// GoErr runs fn on a new goroutine nobody waits on. A non-nil error returned
// by fn is reported as an unhandled rejection. The stack points at the
// caller of GoErr because that is where the work was started.
func (h *Hook) GoErr(ctx context.Context, fn func() error) {
	spawnedAt := callers(1)

	go func() {
		defer h.Recover(ctx)

		err := fn()
		if err == nil {
			return
		}

		if !h.IsActive() {
			h.logger.Warn("unhandled background error", "error", err)
			return
		}

		message, classifier := classify(err)
		h.forward(h.BuildRecord(ctx, RecordInput{
			Message:     message,
			Stack:       formatStack(spawnedAt),
			Type:        telemetry_core.RecordTypeUnhandledRejection,
			Fingerprint: buildFingerprint(classifier, firstMeaningfulFrame(spawnedAt)),
		}))
	}()
}

// CaptureError reports err as an error record. A nil err is ignored.
func (h *Hook) CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	pcs := callers(1)
	message, classifier := classify(err)
	h.forward(h.BuildRecord(ctx, RecordInput{
		Message:     message,
		Stack:       formatStack(pcs),
		Type:        telemetry_core.RecordTypeError,
		Fingerprint: buildFingerprint(classifier, firstMeaningfulFrame(pcs)),
	}))
}

// LogError reports message explicitly from application code.
func (h *Hook) LogError(ctx context.Context, message string, options LogOptions) {
	pcs := callers(1)
	h.forward(h.BuildRecord(ctx, RecordInput{
		Message:     message,
		Stack:       formatStack(pcs),
		Type:        telemetry_core.RecordTypeError,
		Severity:    options.Severity,
		Fingerprint: buildFingerprint(classifierLogError, firstMeaningfulFrame(pcs)),
		Tags:        options.Tags,
		Extra:       options.Extra,
		User:        options.User,
	}))
}

// BuildRenderRecord builds the record for a panic recovered while rendering.
// It must be called from the deferred function that recovered value so the
// captured stack still contains the panicking frames.
func (h *Hook) BuildRenderRecord(
	ctx context.Context,
	value any,
	componentStack string,
) *telemetry_core.ErrorRecord {
	pcs := callers(1)
	message, classifier := classify(value)

	return h.BuildRecord(ctx, RecordInput{
		Message:        message,
		Stack:          formatStack(pcs),
		Type:           telemetry_core.RecordTypeRender,
		ComponentStack: componentStack,
		Fingerprint:    buildFingerprint(classifier, FirstComponentFrame(componentStack)),
	})
}

func (h *Hook) handlePanic(ctx context.Context, value any, pcs []uintptr) {
	message, classifier := classify(value)

	if !h.IsActive() {
		h.logger.Error("recovered panic", "panic", message)
		return
	}

	h.forward(h.BuildRecord(ctx, RecordInput{
		Message:     message,
		Stack:       formatStack(pcs),
		Type:        telemetry_core.RecordTypeError,
		Fingerprint: buildFingerprint(classifier, firstMeaningfulFrame(pcs)),
	}))
}

func (h *Hook) forward(record *telemetry_core.ErrorRecord) {
	if !h.sampled() {
		h.logger.Debug("error capture dropped by sampling", "message", record.Message)
		return
	}

	if h.options.Sender == nil {
		h.logger.Warn("error captured without a sender", "message", record.Message)
		return
	}

	h.options.Sender.Send(record)
}

func (h *Hook) sampled() bool {
	return h.options.Random() < h.options.SampleRate
}
