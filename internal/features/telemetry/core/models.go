package telemetry_core

import (
	"maps"
	"strings"
	"time"
)

const (
	DefaultBreadcrumbCapacity = 50
	MaxRecordBreadcrumbs      = 10

	// UnknownFingerprint groups records that arrive without a fingerprint.
	UnknownFingerprint = "unknown"
	fingerprintJoiner  = "::"
)

type Breadcrumb struct {
	Timestamp time.Time          `json:"timestamp"`
	Category  BreadcrumbCategory `json:"category"`
	Message   string             `json:"message"`
	Level     BreadcrumbLevel    `json:"level"`
	Data      map[string]any     `json:"data,omitempty"`
}

// Clone copies the breadcrumb including its top-level data map.
func (b Breadcrumb) Clone() Breadcrumb {
	if b.Data != nil {
		b.Data = maps.Clone(b.Data)
	}
	return b
}

// ErrorRecord is the unit sent from reporters to the error-logging relay.
// It is built once at capture time and not modified afterwards.
type ErrorRecord struct {
	Message        string              `json:"message"`
	Stack          string              `json:"stack,omitempty"`
	Type           RecordType          `json:"type"`
	Severity       Severity            `json:"severity"`
	URL            string              `json:"url,omitempty"`
	UserAgent      string              `json:"userAgent,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
	ComponentStack string              `json:"componentStack,omitempty"`
	Fingerprint    []string            `json:"fingerprint,omitempty"`
	Tags           map[string]string   `json:"tags,omitempty"`
	Extra          map[string]any      `json:"extra,omitempty"`
	Breadcrumbs    []Breadcrumb        `json:"breadcrumbs,omitempty"`
	User           *UserContext        `json:"user,omitempty"`
	Device         *DeviceContext      `json:"device,omitempty"`
	Performance    *PerformanceContext `json:"performance,omitempty"`
	SessionID      string              `json:"sessionId,omitempty"`
	Release        string              `json:"release,omitempty"`
	Environment    string              `json:"environment,omitempty"`
}

type UserContext struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	IPAddress string `json:"ip,omitempty"`
}

type BrowserInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

type ScreenInfo struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

type DeviceContext struct {
	Browser  *BrowserInfo `json:"browser,omitempty"`
	OS       string       `json:"os,omitempty"`
	Screen   *ScreenInfo  `json:"screen,omitempty"`
	Language string       `json:"language,omitempty"`
	Timezone string       `json:"timezone,omitempty"`
}

// MemorySnapshot keeps the browser's performance.memory field names so that
// browser and server reports land in the same log shape.
type MemorySnapshot struct {
	UsedHeapSize  uint64 `json:"usedJSHeapSize,omitempty"`
	TotalHeapSize uint64 `json:"totalJSHeapSize,omitempty"`
	HeapSizeLimit uint64 `json:"jsHeapSizeLimit,omitempty"`
}

type NavigationTiming struct {
	LoadTimeMs         int64 `json:"loadTime,omitempty"`
	DOMContentLoadedMs int64 `json:"domContentLoaded,omitempty"`
	TimeToFirstByteMs  int64 `json:"timeToFirstByte,omitempty"`
	RequestElapsedMs   int64 `json:"requestElapsed,omitempty"`
}

type PerformanceContext struct {
	Memory *MemorySnapshot   `json:"memory,omitempty"`
	Timing *NavigationTiming `json:"timing,omitempty"`
}

// FingerprintKey joins a fingerprint into the grouping key.
func FingerprintKey(fingerprint []string) string {
	parts := make([]string, 0, len(fingerprint))
	for _, part := range fingerprint {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	if len(parts) == 0 {
		return UnknownFingerprint
	}

	return strings.Join(parts, fingerprintJoiner)
}

// TailBreadcrumbs returns the last n entries of crumbs, oldest first.
func TailBreadcrumbs(crumbs []Breadcrumb, n int) []Breadcrumb {
	if n <= 0 || len(crumbs) == 0 {
		return nil
	}
	if len(crumbs) > n {
		crumbs = crumbs[len(crumbs)-n:]
	}

	out := make([]Breadcrumb, len(crumbs))
	for i, crumb := range crumbs {
		out[i] = crumb.Clone()
	}
	return out
}
