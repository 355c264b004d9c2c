package time_parser

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// millisecondsThreshold separates unix seconds from unix milliseconds:
// values above it are milliseconds (anything after ~2001-09-09).
const millisecondsThreshold = 1e12

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp converts an ISO string, a unix timestamp in seconds or
// milliseconds, or a json.Number to a UTC time. ok is false when the value
// is empty or cannot be interpreted.
func ParseTimestamp(value any) (parsed time.Time, ok bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false

	case time.Time:
		return v.UTC(), !v.IsZero()

	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return time.Time{}, false
		}

		for _, layout := range layouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), true
			}
		}

		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return fromUnix(n), true
		}

		return time.Time{}, false

	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromUnix(n), true

	case float64:
		return fromUnix(v), true

	case int64:
		return fromUnix(float64(v)), true

	case int:
		return fromUnix(float64(v)), true

	default:
		return time.Time{}, false
	}
}

// ParseTimestampOr is ParseTimestamp with a fallback for unparseable values.
func ParseTimestampOr(value any, fallback time.Time) time.Time {
	if t, ok := ParseTimestamp(value); ok {
		return t
	}
	return fallback.UTC()
}

func fromUnix(v float64) time.Time {
	if v > millisecondsThreshold {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}
