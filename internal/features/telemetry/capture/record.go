package telemetry_capture

import (
	"context"
	"maps"

	telemetry_core "tentspace/internal/features/telemetry/core"
)

type RecordInput struct {
	Message        string
	Stack          string
	Type           telemetry_core.RecordType
	Severity       telemetry_core.Severity
	ComponentStack string
	Fingerprint    []string
	Tags           map[string]string
	Extra          map[string]any
	User           *telemetry_core.UserContext
}

// BuildRecord assembles a complete ErrorRecord from input and whatever ctx
// and the hosting process can tell about the environment. Context that
// cannot be collected is left nil.
func (h *Hook) BuildRecord(ctx context.Context, input RecordInput) *telemetry_core.ErrorRecord {
	now := h.options.Now()
	info := RequestInfoFromContext(ctx)

	record := &telemetry_core.ErrorRecord{
		Message:        input.Message,
		Stack:          input.Stack,
		Type:           input.Type,
		Severity:       input.Severity,
		Timestamp:      now.UTC(),
		ComponentStack: input.ComponentStack,
		Fingerprint:    input.Fingerprint,
		Tags:           maps.Clone(input.Tags),
		Extra:          maps.Clone(input.Extra),
		SessionID:      h.sessionID,
		Release:        h.options.Release,
		Environment:    h.options.Environment,
	}

	if record.Type == "" {
		record.Type = telemetry_core.RecordTypeError
	}
	if !record.Severity.IsValid() {
		record.Severity = telemetry_core.SeverityError
	}
	if len(record.Fingerprint) == 0 {
		record.Fingerprint = []string{telemetry_core.UnknownFingerprint}
	}

	if info != nil {
		record.URL = info.URL
		record.UserAgent = info.UserAgent
	}

	if h.options.Breadcrumbs != nil {
		crumbs := collectSafely(func() *[]telemetry_core.Breadcrumb {
			recent := h.options.Breadcrumbs.Recent(telemetry_core.MaxRecordBreadcrumbs)
			return &recent
		})
		if crumbs != nil {
			record.Breadcrumbs = *crumbs
		}
	}

	record.User = resolveUser(ctx, input.User, info)
	record.Device = collectSafely(func() *telemetry_core.DeviceContext {
		return collectDevice(info)
	})
	record.Performance = collectSafely(func() *telemetry_core.PerformanceContext {
		return collectPerformance(info, now)
	})

	return record
}

func resolveUser(
	ctx context.Context,
	explicit *telemetry_core.UserContext,
	info *RequestInfo,
) *telemetry_core.UserContext {
	user := explicit
	if user == nil {
		user = UserFromContext(ctx)
	}
	if user == nil {
		return nil
	}

	copied := *user
	if copied.IPAddress == "" && info != nil {
		copied.IPAddress = info.ClientIP
	}
	return &copied
}
