package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// renderer wraps a raw sink with the layout for one Format.
type renderer func(sink io.Writer, color bool) io.Writer

var renderers = map[Format]renderer{
	FormatJSON: func(sink io.Writer, _ bool) io.Writer {
		return sink
	},
	FormatConsole: func(sink io.Writer, color bool) io.Writer {
		return zerolog.ConsoleWriter{Out: sink, TimeFormat: time.RFC3339, NoColor: !color}
	},
	FormatText: func(sink io.Writer, _ bool) io.Writer {
		return zerolog.ConsoleWriter{Out: sink, TimeFormat: time.RFC3339, NoColor: true}
	},
}

func render(format Format, sink io.Writer, color bool) io.Writer {
	r, ok := renderers[format]
	if !ok {
		r = renderers[FormatConsole]
	}
	return r(sink, color)
}

// outputs assembles the writers a logger fans out to.
type outputs struct {
	console io.Writer
}

func newOutputs() *outputs {
	return &outputs{console: os.Stderr}
}

func (o *outputs) build(opts Options) ([]io.Writer, error) {
	writers := []io.Writer{render(opts.Format, o.console, true)}

	if opts.FileEnabled() {
		file, err := o.rotatingFile(opts)
		if err != nil {
			return nil, err
		}
		// never colorize files
		writers = append(writers, render(opts.Format, file, false))
	}
	return writers, nil
}

func (o *outputs) rotatingFile(opts Options) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		LocalTime:  true,
	}, nil
}
