package config

const (
	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Monitor Defaults
	DefaultMonitorCheckIntervalSeconds  = 43200 // 12 hours
	DefaultMonitorHTTPTimeoutSeconds    = 10
	DefaultMonitorMaxConcurrentChecks   = 10
	DefaultMonitorSearchCacheSize       = 1000
	DefaultMonitorSearchCacheTTLSeconds = 600

	// Notification Defaults
	DefaultNotificationSMTPPort           = 465
	DefaultNotificationFromName           = "Downtime"
	DefaultNotificationSendTimeoutSeconds = 10

	// Storage Defaults
	DefaultStorageWebsitesFile = "data/websites.json"

	// Server Defaults
	DefaultServerHost                 = ""
	DefaultServerPort                 = 5000
	DefaultServerReadTimeoutSeconds   = 15
	DefaultServerWriteTimeoutSeconds  = 30
	DefaultServerShutdownGraceSeconds = 15

	// Scheduler Defaults
	DefaultSchedulerSQLiteDBPath = "data/scan_history.db"

	// HTTP Client Defaults
	DefaultHTTPClientUserAgent    = "Mozilla/5.0 (compatible; downtime-monitor/1.0)"
	DefaultHTTPClientMaxRedirects = 10

	// ConfigPathEnv names the environment variable consulted by GetConfigPath.
	ConfigPathEnv = "DOWNTIME_CONFIG_PATH"
)
