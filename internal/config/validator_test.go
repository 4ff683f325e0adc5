package config

import (
	"testing"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GlobalConfig)
		field  string
	}{
		{"bad log level", func(c *GlobalConfig) { c.LogConfig.LogLevel = "loud" }, "LogConfig.LogLevel"},
		{"bad log format", func(c *GlobalConfig) { c.LogConfig.LogFormat = "xml" }, "LogConfig.LogFormat"},
		{"bad recipient", func(c *GlobalConfig) { c.NotificationConfig.Recipients = []string{"ops@example.com", "nope"} }, "NotificationConfig.Recipients"},
		{"bad port", func(c *GlobalConfig) { c.ServerConfig.Port = 70000 }, "ServerConfig.Port"},
		{"missing websites file", func(c *GlobalConfig) { c.StorageConfig.WebsitesFile = "" }, "StorageConfig.WebsitesFile"},
		{"history without db", func(c *GlobalConfig) {
			c.SchedulerConfig.HistoryEnabled = true
			c.SchedulerConfig.SQLiteDBPath = ""
		}, "SchedulerConfig.SQLiteDBPath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateConfig_ValidRecipients(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.NotificationConfig.Recipients = []string{"a@example.com", "b@example.org"}
	cfg.NotificationConfig.SMTPHost = "smtp.example.com"

	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfig_CrossSection(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.MonitorConfig.CheckIntervalSeconds = 5
	cfg.MonitorConfig.HTTPTimeoutSeconds = 10
	cfg.NotificationConfig.SMTPUsername = "ops@example.com"

	err := ValidateConfig(cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, errorwrapper.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "MonitorConfig.HTTPTimeoutSeconds")
	assert.Contains(t, err.Error(), "NotificationConfig.SMTPPassword")
}

func TestValidateConfig_Defaults(t *testing.T) {
	assert.NoError(t, ValidateConfig(NewDefaultGlobalConfig()))
}
