package error_logging

import (
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"
)

// LogEntry is the JSON document written to the log store for one record.
// The underscore fields duplicate nested values at the top level so log
// queries can filter on them without nested paths.
type LogEntry struct {
	EventID     string                             `json:"eventId"`
	Level       telemetry_core.Severity            `json:"level"`
	Timestamp   time.Time                          `json:"timestamp"`
	Error       LogEntryError                      `json:"error"`
	Fingerprint string                             `json:"fingerprint"`
	Context     LogEntryContext                    `json:"context"`
	User        *telemetry_core.UserContext        `json:"user,omitempty"`
	Device      *telemetry_core.DeviceContext      `json:"device,omitempty"`
	Performance *telemetry_core.PerformanceContext `json:"performance,omitempty"`
	SessionID   string                             `json:"sessionId,omitempty"`
	Release     string                             `json:"release,omitempty"`
	Environment string                             `json:"environment"`
	Breadcrumbs []telemetry_core.Breadcrumb        `json:"breadcrumbs"`

	SummaryMessage     string `json:"_message"`
	SummaryFingerprint string `json:"_fingerprint"`
	SummaryURL         string `json:"_url,omitempty"`
	SummarySessionID   string `json:"_sessionId,omitempty"`
}

type LogEntryError struct {
	Type           telemetry_core.RecordType `json:"type"`
	Message        string                    `json:"message"`
	Stack          string                    `json:"stack,omitempty"`
	ComponentStack string                    `json:"componentStack,omitempty"`
}

type LogEntryContext struct {
	URL       string            `json:"url,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
	Extra     map[string]any    `json:"extra,omitempty"`
}

const maxSummaryMessageRunes = 200

func NewLogEntry(eventID, environment string, record *telemetry_core.ErrorRecord) *LogEntry {
	fingerprint := telemetry_core.FingerprintKey(record.Fingerprint)

	breadcrumbs := telemetry_core.TailBreadcrumbs(record.Breadcrumbs, telemetry_core.MaxRecordBreadcrumbs)
	if breadcrumbs == nil {
		breadcrumbs = []telemetry_core.Breadcrumb{}
	}

	return &LogEntry{
		EventID:   eventID,
		Level:     record.Severity,
		Timestamp: record.Timestamp,
		Error: LogEntryError{
			Type:           record.Type,
			Message:        record.Message,
			Stack:          record.Stack,
			ComponentStack: record.ComponentStack,
		},
		Fingerprint: fingerprint,
		Context: LogEntryContext{
			URL:       record.URL,
			UserAgent: record.UserAgent,
			Tags:      record.Tags,
			Extra:     record.Extra,
		},
		User:        record.User,
		Device:      record.Device,
		Performance: record.Performance,
		SessionID:   record.SessionID,
		Release:     record.Release,
		Environment: environment,
		Breadcrumbs: breadcrumbs,

		SummaryMessage:     truncateRunes(record.Message, maxSummaryMessageRunes),
		SummaryFingerprint: fingerprint,
		SummaryURL:         record.URL,
		SummarySessionID:   record.SessionID,
	}
}

func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
