package time_parser

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ParseTimestamp_WithEmptyValues_ReturnsNotOk(t *testing.T) {
	for _, value := range []any{nil, "", "   ", time.Time{}} {
		_, ok := ParseTimestamp(value)
		assert.False(t, ok, "value %#v should not parse", value)
	}
}

func Test_ParseTimestamp_WithISOStrings_ParsesToUTC(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"RFC3339", "2024-03-05T10:20:30Z", time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{"RFC3339 with offset", "2024-03-05T10:20:30+09:00", time.Date(2024, 3, 5, 1, 20, 30, 0, time.UTC)},
		{"browser toISOString", "2024-03-05T10:20:30.123Z", time.Date(2024, 3, 5, 10, 20, 30, 123000000, time.UTC)},
		{"no timezone", "2024-03-05T10:20:30", time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{"space separated", "2024-03-05 10:20:30", time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := ParseTimestamp(tt.input)
			assert.True(t, ok)
			assert.True(t, tt.expected.Equal(result), "expected %s, got %s", tt.expected, result)
			assert.Equal(t, time.UTC, result.Location())
		})
	}
}

func Test_ParseTimestamp_WithUnixNumbers_DistinguishesSecondsAndMilliseconds(t *testing.T) {
	expected := time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)

	seconds, ok := ParseTimestamp(float64(expected.Unix()))
	assert.True(t, ok)
	assert.True(t, expected.Equal(seconds))

	millis, ok := ParseTimestamp(float64(expected.UnixMilli()))
	assert.True(t, ok)
	assert.True(t, expected.Equal(millis))

	number, ok := ParseTimestamp(json.Number("1709634030000"))
	assert.True(t, ok)
	assert.True(t, expected.Equal(number))

	fromInt, ok := ParseTimestamp(int(expected.Unix()))
	assert.True(t, ok)
	assert.True(t, expected.Equal(fromInt))
}

func Test_ParseTimestamp_WithUnsupportedTypes_ReturnsNotOk(t *testing.T) {
	for _, value := range []any{true, []any{1}, map[string]any{"a": 1}, "not a date"} {
		_, ok := ParseTimestamp(value)
		assert.False(t, ok, "value %#v should not parse", value)
	}
}

func Test_ParseTimestampOr_WithInvalidValue_ReturnsFallbackInUTC(t *testing.T) {
	fallback := time.Date(2024, 1, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*3600))

	result := ParseTimestampOr("garbage", fallback)

	assert.True(t, fallback.Equal(result))
	assert.Equal(t, time.UTC, result.Location())
}
