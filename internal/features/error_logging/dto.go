package error_logging

import (
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"
	time_parser "tentspace/internal/util/time"
)

// IngestErrorRequestDTO is an ErrorRecord as sent by reporters. Timestamps
// are accepted as RFC3339 strings or epoch seconds/milliseconds because
// browsers send whichever their runtime produced.
type IngestErrorRequestDTO struct {
	Message        string                             `json:"message"`
	Stack          string                             `json:"stack,omitempty"`
	Type           telemetry_core.RecordType          `json:"type"`
	Severity       telemetry_core.Severity            `json:"severity"`
	URL            string                             `json:"url,omitempty"`
	UserAgent      string                             `json:"userAgent,omitempty"`
	Timestamp      any                                `json:"timestamp,omitempty"                swaggertype:"string"`
	ComponentStack string                             `json:"componentStack,omitempty"`
	Fingerprint    []string                           `json:"fingerprint,omitempty"`
	Tags           map[string]string                  `json:"tags,omitempty"`
	Extra          map[string]any                     `json:"extra,omitempty"`
	Breadcrumbs    []BreadcrumbDTO                    `json:"breadcrumbs,omitempty"`
	User           *telemetry_core.UserContext        `json:"user,omitempty"`
	Device         *telemetry_core.DeviceContext      `json:"device,omitempty"`
	Performance    *telemetry_core.PerformanceContext `json:"performance,omitempty"`
	SessionID      string                             `json:"sessionId,omitempty"`
	Release        string                             `json:"release,omitempty"`
	Environment    string                             `json:"environment,omitempty"`
}

type BreadcrumbDTO struct {
	Timestamp any                               `json:"timestamp,omitempty" swaggertype:"string"`
	Category  telemetry_core.BreadcrumbCategory `json:"category"`
	Message   string                            `json:"message"`
	Level     telemetry_core.BreadcrumbLevel    `json:"level"`
	Data      map[string]any                    `json:"data,omitempty"`
}

// ToRecord normalizes the request. Unknown enum values fall back to the
// defaults and a missing timestamp becomes receivedAt.
func (r *IngestErrorRequestDTO) ToRecord(receivedAt time.Time) *telemetry_core.ErrorRecord {
	record := &telemetry_core.ErrorRecord{
		Message:        r.Message,
		Stack:          r.Stack,
		Type:           r.Type,
		Severity:       r.Severity,
		URL:            r.URL,
		UserAgent:      r.UserAgent,
		Timestamp:      time_parser.ParseTimestampOr(r.Timestamp, receivedAt).UTC(),
		ComponentStack: r.ComponentStack,
		Fingerprint:    r.Fingerprint,
		Tags:           r.Tags,
		Extra:          r.Extra,
		User:           r.User,
		Device:         r.Device,
		Performance:    r.Performance,
		SessionID:      r.SessionID,
		Release:        r.Release,
		Environment:    r.Environment,
	}

	if !record.Type.IsValid() {
		record.Type = telemetry_core.RecordTypeError
	}
	if !record.Severity.IsValid() {
		record.Severity = telemetry_core.SeverityError
	}

	crumbs := make([]telemetry_core.Breadcrumb, 0, len(r.Breadcrumbs))
	for _, crumb := range r.Breadcrumbs {
		crumbs = append(crumbs, telemetry_core.Breadcrumb{
			Timestamp: time_parser.ParseTimestampOr(crumb.Timestamp, time.Time{}).UTC(),
			Category:  crumb.Category,
			Message:   crumb.Message,
			Level:     crumb.Level,
			Data:      crumb.Data,
		})
	}
	record.Breadcrumbs = telemetry_core.TailBreadcrumbs(crumbs, telemetry_core.MaxRecordBreadcrumbs)

	return record
}

type IngestErrorResponseDTO struct {
	Success     bool   `json:"success"`
	EventID     string `json:"eventId"`
	Environment string `json:"environment"`
	LogGroup    string `json:"logGroup"`
	Fingerprint string `json:"fingerprint"`
}

type DevelopmentModeResponseDTO struct {
	Success    bool   `json:"success"`
	Mode       string `json:"mode"`
	CloudWatch bool   `json:"cloudwatch"`
}

type StatusResponseDTO struct {
	Status          string `json:"status"`
	LogGroupName    string `json:"logGroupName"`
	LogStreamName   string `json:"logStreamName"`
	LogStreamPrefix string `json:"logStreamPrefix"`
	Environment     string `json:"environment"`
	AWSConfigured   bool   `json:"awsConfigured"`
}
