package logger

import (
	"strings"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/aleister1102/downtime/internal/config"
	"github.com/rs/zerolog"
)

// Format selects how log lines are rendered.
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "console"
	}
}

// Options is the resolved form of config.LogConfig.
type Options struct {
	Level      zerolog.Level
	Format     Format
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	// Service is attached to every entry so mixed log streams can be told apart.
	Service string
}

// FileEnabled reports whether entries are also written to a rotated file.
func (o Options) FileEnabled() bool {
	return o.FilePath != ""
}

func defaultOptions() Options {
	return Options{
		Level:      zerolog.InfoLevel,
		Format:     FormatConsole,
		MaxSizeMB:  config.DefaultMaxLogSizeMB,
		MaxBackups: config.DefaultMaxLogBackups,
		Service:    "downtime",
	}
}

// OptionsFromConfig resolves level and format names and fills size defaults.
func OptionsFromConfig(cfg config.LogConfig) (Options, error) {
	opts := defaultOptions()

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return Options{}, err
	}
	opts.Level = level
	opts.Format = ParseFormat(cfg.LogFormat)
	opts.FilePath = strings.TrimSpace(cfg.LogFile)
	if cfg.MaxLogSizeMB > 0 {
		opts.MaxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		opts.MaxBackups = cfg.MaxLogBackups
	}
	return opts, nil
}

// ParseLevel maps a level name to zerolog.Level. An empty name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel, errorwrapper.WrapError(err, "invalid log level")
	}
	return level, nil
}

// ParseFormat maps a format name to Format; unknown names fall back to console.
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}
