package config

import "time"

// NotificationConfig defines configuration for email notifications
type NotificationConfig struct {
	SMTPHost           string   `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty" validate:"omitempty,hostname_rfc1123|ip"`
	SMTPPort           int      `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
	SMTPUsername       string   `json:"smtp_username,omitempty" yaml:"smtp_username,omitempty"`
	SMTPPassword       string   `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	UseImplicitTLS     bool     `json:"use_implicit_tls" yaml:"use_implicit_tls"`
	FromAddress        string   `json:"from_address,omitempty" yaml:"from_address,omitempty" validate:"omitempty,email"`
	FromName           string   `json:"from_name,omitempty" yaml:"from_name,omitempty"`
	Recipients         []string `json:"recipients,omitempty" yaml:"recipients,omitempty" validate:"omitempty,emails"`
	NotifyOnDown       bool     `json:"notify_on_down" yaml:"notify_on_down"`
	NotifyOnRecovery   bool     `json:"notify_on_recovery" yaml:"notify_on_recovery"`
	SendTimeoutSeconds int      `json:"send_timeout_seconds,omitempty" yaml:"send_timeout_seconds,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		SMTPPort:           DefaultNotificationSMTPPort,
		UseImplicitTLS:     true,
		FromName:           DefaultNotificationFromName,
		Recipients:         []string{},
		NotifyOnDown:       true,
		NotifyOnRecovery:   false,
		SendTimeoutSeconds: DefaultNotificationSendTimeoutSeconds,
	}
}

// IsConfigured reports whether there is enough information to send mail.
func (nc NotificationConfig) IsConfigured() bool {
	return nc.SMTPHost != "" && nc.FromAddress != "" && len(nc.Recipients) > 0
}

// SendTimeout returns the deadline for a single notification dispatch.
func (nc NotificationConfig) SendTimeout() time.Duration {
	return secondsOrDefault(nc.SendTimeoutSeconds, DefaultNotificationSendTimeoutSeconds)
}
