package telemetry_core

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// NewTimestampedID returns "<epoch-millis>-<random base36>". Session ids and
// relay event ids share this shape so they sort by creation time.
func NewTimestampedID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10) + "-" + strconv.FormatUint(rand.Uint64(), 36)
}
