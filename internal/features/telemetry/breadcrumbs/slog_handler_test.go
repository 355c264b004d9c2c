package telemetry_breadcrumbs

import (
	"errors"
	"log/slog"
	"testing"

	telemetry_core "tentspace/internal/features/telemetry/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SlogHandler_AtOrAboveLevel_RecordsConsoleBreadcrumbs(t *testing.T) {
	buffer := NewBuffer(10)
	logger := slog.New(NewSlogHandler(buffer, slog.LevelWarn)).With("component", "checkout")

	logger.Info("not recorded")
	logger.Warn("slow response", "duration_ms", 1200)
	logger.Error("payment failed", "error", errors.New("card declined"))

	all := buffer.GetAll()
	require.Len(t, all, 2)

	assert.Equal(t, telemetry_core.BreadcrumbCategoryConsole, all[0].Category)
	assert.Equal(t, telemetry_core.BreadcrumbLevelWarning, all[0].Level)
	assert.Equal(t, "checkout", all[0].Data["component"])
	assert.EqualValues(t, 1200, all[0].Data["duration_ms"])

	assert.Equal(t, telemetry_core.BreadcrumbLevelError, all[1].Level)
	assert.Equal(t, "card declined", all[1].Data["error"])
}

func Test_SlogHandler_WithGroup_PrefixesKeys(t *testing.T) {
	buffer := NewBuffer(10)
	logger := slog.New(NewSlogHandler(buffer, nil)).WithGroup("http")

	logger.Warn("retrying", "attempt", 2)

	all := buffer.GetAll()
	require.Len(t, all, 1)
	assert.EqualValues(t, 2, all[0].Data["http.attempt"])
}
