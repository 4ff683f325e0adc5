package config

import (
	"os"
	"strconv"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
)

// Environment variables that override file configuration.
const (
	EnvEmail         = "EMAIL"
	EnvEmailPassword = "EMAIL_PASSWORD"
	EnvSMTPHost      = "SMTP_HOST"
	EnvSMTPPort      = "SMTP_PORT"
	EnvPort          = "PORT"
)

// ApplyEnvOverrides copies credentials and ports from the environment into cfg.
// EMAIL is both the SMTP login and the sender address unless those are set explicitly.
func ApplyEnvOverrides(cfg *GlobalConfig) error {
	nc := &cfg.NotificationConfig

	if email := os.Getenv(EnvEmail); email != "" {
		if nc.SMTPUsername == "" {
			nc.SMTPUsername = email
		}
		if nc.FromAddress == "" {
			nc.FromAddress = email
		}
	}
	if password := os.Getenv(EnvEmailPassword); password != "" {
		nc.SMTPPassword = password
	}
	if host := os.Getenv(EnvSMTPHost); host != "" {
		nc.SMTPHost = host
	}

	if raw := os.Getenv(EnvSMTPPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return errorwrapper.NewValidationError(EnvSMTPPort, raw, "must be an integer")
		}
		nc.SMTPPort = port
	}
	if raw := os.Getenv(EnvPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return errorwrapper.NewValidationError(EnvPort, raw, "must be an integer")
		}
		cfg.ServerConfig.Port = port
	}
	return nil
}
