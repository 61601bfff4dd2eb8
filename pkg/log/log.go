// Package log wraps log/slog with the level, format and pretty-printing
// options used across the engine and the ebs command.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a *slog.Logger that remembers its configuration.
type Logger struct {
	*slog.Logger
	config
}

// Make creates a Logger writing to w.
func Make(w io.Writer, opts ...Option) Logger {
	cfg := makeConfig(w, opts...)
	return Logger{Logger: slog.New(cfg.handler()), config: cfg}
}

// Wrap returns a copy of l with opts applied on top of its configuration.
func (l Logger) Wrap(opts ...Option) Logger {
	cfg := apply(l.config, opts...)
	return Logger{Logger: slog.New(cfg.handler()), config: cfg}
}

// Level returns the minimum level.
func (l Logger) Level() Level { return l.level }

// Format returns the output format.
func (l Logger) Format() Format { return l.format }

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var std = Make(os.Stderr)

// Default returns the process-wide logger.
func Default() Logger { return std }

// Config reconfigures the process-wide logger and installs it as the slog
// default.
func Config(opts ...Option) Logger {
	std = std.Wrap(opts...)
	slog.SetDefault(std.Logger)
	return std
}
