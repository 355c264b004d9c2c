package telemetry_capture

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"

	"github.com/mssola/useragent"
	"github.com/shirou/gopsutil/v4/mem"
)

const memoryProbeTimeout = 200 * time.Millisecond

// collectSafely runs a context collector and turns a panic into a missing
// sub-context so the capture itself always completes.
func collectSafely[T any](collect func() *T) (result *T) {
	defer func() {
		if recover() != nil {
			result = nil
		}
	}()

	return collect()
}

func collectDevice(info *RequestInfo) *telemetry_core.DeviceContext {
	device := &telemetry_core.DeviceContext{
		OS:       runtime.GOOS,
		Timezone: time.Local.String(),
	}

	if info == nil {
		return device
	}

	if info.UserAgent != "" {
		ua := useragent.New(info.UserAgent)
		name, version := ua.Browser()
		if name != "" {
			device.Browser = &telemetry_core.BrowserInfo{Name: name, Version: version}
		}
		if osName := ua.OS(); osName != "" {
			device.OS = osName
		}
	}

	if info.ViewportWidth > 0 || info.ViewportHeight > 0 {
		device.Screen = &telemetry_core.ScreenInfo{
			Width:  info.ViewportWidth,
			Height: info.ViewportHeight,
		}
	}

	device.Language = primaryLanguage(info.AcceptLanguage)

	return device
}

// primaryLanguage returns the first tag of an Accept-Language header.
func primaryLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}

func collectPerformance(info *RequestInfo, now time.Time) *telemetry_core.PerformanceContext {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	performance := &telemetry_core.PerformanceContext{
		Memory: &telemetry_core.MemorySnapshot{
			UsedHeapSize:  stats.HeapAlloc,
			TotalHeapSize: stats.HeapSys,
			HeapSizeLimit: heapLimit(),
		},
	}

	if info != nil && !info.StartedAt.IsZero() {
		performance.Timing = &telemetry_core.NavigationTiming{
			RequestElapsedMs: now.Sub(info.StartedAt).Milliseconds(),
		}
	}

	return performance
}

// heapLimit is GOMEMLIMIT when set, otherwise the host's physical memory.
func heapLimit() uint64 {
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit != math.MaxInt64 {
		return uint64(limit)
	}

	ctx, cancel := context.WithTimeout(context.Background(), memoryProbeTimeout)
	defer cancel()

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0
	}

	return vm.Total
}
