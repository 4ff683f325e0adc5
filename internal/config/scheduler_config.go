package config

// SchedulerConfig defines configuration for the scan history journal
type SchedulerConfig struct {
	HistoryEnabled bool   `json:"history_enabled" yaml:"history_enabled"`
	SQLiteDBPath   string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required_if=HistoryEnabled true"`
}

// NewDefaultSchedulerConfig creates default scheduler configuration
func NewDefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		HistoryEnabled: false,
		SQLiteDBPath:   DefaultSchedulerSQLiteDBPath,
	}
}
