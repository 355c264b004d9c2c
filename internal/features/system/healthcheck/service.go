package system_healthcheck

import (
	"context"
	"errors"
	"fmt"

	"tentspace/internal/config"
	cache_utils "tentspace/internal/util/cache"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/valkey-io/valkey-go"
)

const (
	componentOK            = "ok"
	componentNotConfigured = "not_configured"
	componentUnavailable   = "unavailable"
	maxDiskUsedPercent     = 95.0
	statusHealthy          = "healthy"
	statusUnhealthy        = "unhealthy"
)

type HealthcheckService struct {
	env   config.EnvVariables
	cache valkey.Client
	// diskPath is the filesystem the server writes to.
	diskPath string
}

func (s *HealthcheckService) IsHealthy(ctx context.Context) (*HealthcheckResponse, error) {
	response := &HealthcheckResponse{
		Status:      statusHealthy,
		Release:     s.env.Release,
		Environment: string(s.env.EnvMode),
		Cache:       componentNotConfigured,
		LogStore:    componentNotConfigured,
	}

	if s.env.IsAWSConfigured() {
		response.LogStore = componentOK
	}

	var errs []error

	if s.cache != nil {
		if err := cache_utils.TestCacheConnection(s.cache); err != nil {
			response.Cache = componentUnavailable
			errs = append(errs, fmt.Errorf("cache: %w", err))
		} else {
			response.Cache = componentOK
		}
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		response.MemoryUsedPct = vm.UsedPercent
	}

	usage, err := disk.UsageWithContext(ctx, s.diskPath)
	if err != nil {
		errs = append(errs, fmt.Errorf("disk: %w", err))
	} else {
		response.DiskUsedPct = usage.UsedPercent
		if usage.UsedPercent > maxDiskUsedPercent {
			errs = append(errs, fmt.Errorf("disk: %.1f%% used", usage.UsedPercent))
		}
	}

	if err := errors.Join(errs...); err != nil {
		response.Status = statusUnhealthy
		response.Error = err.Error()
		return response, err
	}

	return response, nil
}
