package config

import (
	"time"
)

// MonitorConfig defines configuration for the website checks and the search cache
type MonitorConfig struct {
	CheckIntervalSeconds  int  `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"omitempty,min=1"`
	HTTPTimeoutSeconds    int  `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxConcurrentChecks   int  `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"omitempty,min=1"`
	ScanOnStartup         bool `json:"scan_on_startup" yaml:"scan_on_startup"`
	ScanOnAdd             bool `json:"scan_on_add" yaml:"scan_on_add"`
	SearchCacheSize       int  `json:"search_cache_size,omitempty" yaml:"search_cache_size,omitempty" validate:"omitempty,min=1"`
	SearchCacheTTLSeconds int  `json:"search_cache_ttl_seconds,omitempty" yaml:"search_cache_ttl_seconds,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CheckIntervalSeconds:  DefaultMonitorCheckIntervalSeconds,
		HTTPTimeoutSeconds:    DefaultMonitorHTTPTimeoutSeconds,
		MaxConcurrentChecks:   DefaultMonitorMaxConcurrentChecks,
		ScanOnStartup:         true,
		ScanOnAdd:             true,
		SearchCacheSize:       DefaultMonitorSearchCacheSize,
		SearchCacheTTLSeconds: DefaultMonitorSearchCacheTTLSeconds,
	}
}

// CheckInterval returns the period between scheduled scan passes.
func (mc MonitorConfig) CheckInterval() time.Duration {
	return secondsOrDefault(mc.CheckIntervalSeconds, DefaultMonitorCheckIntervalSeconds)
}

// HTTPTimeout returns the deadline applied to a single probe.
func (mc MonitorConfig) HTTPTimeout() time.Duration {
	return secondsOrDefault(mc.HTTPTimeoutSeconds, DefaultMonitorHTTPTimeoutSeconds)
}

// SearchCacheTTL returns how long an ad-hoc search result stays cached.
func (mc MonitorConfig) SearchCacheTTL() time.Duration {
	return secondsOrDefault(mc.SearchCacheTTLSeconds, DefaultMonitorSearchCacheTTLSeconds)
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
