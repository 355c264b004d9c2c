package error_logging

import (
	"strings"
	"time"
)

// Destination is where one day's error records for an environment go.
type Destination struct {
	LogGroupName  string
	LogStreamName string
}

// LogGroupName is "<prefix>/<environment>".
func LogGroupName(prefix, environment string) string {
	return strings.TrimRight(prefix, "/") + "/" + environment
}

// LogStreamName is "<prefix>-YYYY-MM-DD" for the UTC calendar day of t.
func LogStreamName(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format(time.DateOnly)
}

func NewDestination(groupPrefix, streamPrefix, environment string, t time.Time) Destination {
	return Destination{
		LogGroupName:  LogGroupName(groupPrefix, environment),
		LogStreamName: LogStreamName(streamPrefix, t),
	}
}

func (d Destination) key() string {
	return d.LogGroupName + "|" + d.LogStreamName
}
