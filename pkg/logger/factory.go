package logger

import (
	"io"
	"log/slog"
	"os"
)

// Config is the logging section of the application config.
// Embed it in the application config for env parsing with caarlos0/env.
type Config struct {
	Sentry SentryConfig
	// Level accepts debug, info, warn or error (case-insensitive).
	Level slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Option configures the stdout handler.
type Option func(*options)

type options struct {
	out   io.Writer
	level slog.Leveler
}

// WithLevel sets the minimum level written to stdout.
func WithLevel(level slog.Leveler) Option {
	return func(o *options) {
		if level != nil {
			o.level = level
		}
	}
}

// WithOutput replaces stdout. Intended for tests.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{out: os.Stdout, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) handler() slog.Handler {
	return slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: o.level})
}

// New creates a JSON-formatted logger with optional context extractors.
func New(opts []Option, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewLogHandlerDecorator(newOptions(opts).handler(), extractors...))
}

// FromConfig builds the application logger: stdout at cfg.Level, plus
// Sentry when cfg.Sentry.DSN is set.
func FromConfig(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return NewWithSentry(cfg.Sentry, []Option{WithLevel(cfg.Level)}, extractors...)
}
