package system_healthcheck

type HealthcheckResponse struct {
	Status        string  `json:"status"`
	Release       string  `json:"release"`
	Environment   string  `json:"environment"`
	Cache         string  `json:"cache"`
	LogStore      string  `json:"logStore"`
	MemoryUsedPct float64 `json:"memoryUsedPercent"`
	DiskUsedPct   float64 `json:"diskUsedPercent"`
	Error         string  `json:"error,omitempty"`
}
