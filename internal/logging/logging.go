// Package logging provides structured logging for gridcore built on zerolog.
// Loggers travel through context.Context so provider goroutines and plugin
// callbacks keep the initialization-cycle fields attached by the grid core.
package logging

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// defaultLogger is the process-wide fallback used when a context carries no
// logger of its own.
//
//nolint:gochecknoglobals // Intentionally global for application-wide structured logging.
var defaultLogger = zerolog.New(io.Discard)

// defaultMu guards defaultLogger.
//
//nolint:gochecknoglobals // Guards the global logger state.
var defaultMu sync.RWMutex

type ctxKey struct{}

// Init configures the default logger with the given level, writing
// human-readable console output to w. An unparseable level falls back to
// info. It returns the configured logger so callers can attach fields.
func Init(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}

	logger := zerolog.New(console).Level(lvl).With().Timestamp().Logger()
	SetDefault(logger)
	return logger
}

// SetDefault replaces the process-wide fallback logger.
func SetDefault(logger zerolog.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// Default returns the process-wide fallback logger.
func Default() zerolog.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithContext returns a child context carrying the given logger.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached to ctx, or the default logger when
// none is attached.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
			return logger
		}
	}
	return Default()
}

// ComponentLogger tags a logger with the component field used across
// gridcore packages.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
