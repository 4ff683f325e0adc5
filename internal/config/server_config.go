package config

import (
	"fmt"
	"time"
)

// ServerConfig defines configuration for the REST API listener
type ServerConfig struct {
	Host                 string   `json:"host,omitempty" yaml:"host,omitempty"`
	Port                 int      `json:"port,omitempty" yaml:"port,omitempty" validate:"min=1,max=65535"`
	ReadTimeoutSeconds   int      `json:"read_timeout_seconds,omitempty" yaml:"read_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	WriteTimeoutSeconds  int      `json:"write_timeout_seconds,omitempty" yaml:"write_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	ShutdownGraceSeconds int      `json:"shutdown_grace_seconds,omitempty" yaml:"shutdown_grace_seconds,omitempty" validate:"omitempty,min=1"`
	AllowedOrigins       []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

// NewDefaultServerConfig creates default server configuration
func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:                 DefaultServerHost,
		Port:                 DefaultServerPort,
		ReadTimeoutSeconds:   DefaultServerReadTimeoutSeconds,
		WriteTimeoutSeconds:  DefaultServerWriteTimeoutSeconds,
		ShutdownGraceSeconds: DefaultServerShutdownGraceSeconds,
		AllowedOrigins:       []string{"*"},
	}
}

// Address returns the listen address in host:port form.
func (sc ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}

func (sc ServerConfig) ReadTimeout() time.Duration {
	return secondsOrDefault(sc.ReadTimeoutSeconds, DefaultServerReadTimeoutSeconds)
}

func (sc ServerConfig) WriteTimeout() time.Duration {
	return secondsOrDefault(sc.WriteTimeoutSeconds, DefaultServerWriteTimeoutSeconds)
}

func (sc ServerConfig) ShutdownGrace() time.Duration {
	return secondsOrDefault(sc.ShutdownGraceSeconds, DefaultServerShutdownGraceSeconds)
}
