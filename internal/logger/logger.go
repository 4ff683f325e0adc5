// Package logger builds the zerolog logger shared by every component.
package logger

import (
	"github.com/aleister1102/downtime/internal/config"
	"github.com/rs/zerolog"
)

// New creates the service logger from the log_config section.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewBuilder().WithConfig(cfg).Build()
}
