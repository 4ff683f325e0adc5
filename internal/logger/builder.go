package logger

import (
	"io"
	stdlog "log"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/aleister1102/downtime/internal/config"
	"github.com/rs/zerolog"
)

// Builder assembles the service logger step by step.
type Builder struct {
	opts    Options
	outputs *outputs
	err     error
}

// NewBuilder starts from info level, console format, stderr only.
func NewBuilder() *Builder {
	return &Builder{
		opts:    defaultOptions(),
		outputs: newOutputs(),
	}
}

// WithConfig applies the application log section.
func (b *Builder) WithConfig(cfg config.LogConfig) *Builder {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		b.err = err
		return b
	}
	opts.Service = b.opts.Service
	b.opts = opts
	return b
}

// WithService overrides the service field stamped on every entry.
func (b *Builder) WithService(name string) *Builder {
	b.opts.Service = name
	return b
}

// WithConsoleOutput replaces stderr, mostly for tests.
func (b *Builder) WithConsoleOutput(w io.Writer) *Builder {
	b.outputs.console = w
	return b
}

// Build creates the logger and makes it the sink for the standard log package.
func (b *Builder) Build() (zerolog.Logger, error) {
	if b.err != nil {
		return zerolog.Nop(), b.err
	}
	if b.opts.FileEnabled() && b.opts.MaxSizeMB <= 0 {
		return zerolog.Nop(), errorwrapper.NewValidationError("max_log_size_mb", b.opts.MaxSizeMB, "must be positive when log_file is set")
	}

	writers, err := b.outputs.build(b.opts)
	if err != nil {
		return zerolog.Nop(), errorwrapper.WrapError(err, "failed to open log outputs")
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(b.opts.Level).
		With().
		Timestamp()
	if b.opts.Service != "" {
		ctx = ctx.Str("service", b.opts.Service)
	}
	logger := ctx.Logger()

	zerolog.SetGlobalLevel(b.opts.Level)
	// net/http reports accept and TLS handshake errors through the standard logger
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)

	return logger, nil
}

// Options returns the options the builder resolved.
func (b *Builder) Options() Options {
	return b.opts
}
