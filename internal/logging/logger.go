// Package logging provides zerolog-based logging for streakwatch.
//
// The native messaging transport owns stdout, so all log output goes to
// stderr or a file; writing anything else to stdout corrupts the framing.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	Output     io.Writer // defaults to os.Stderr
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New creates a new zerolog logger with the given configuration
func New(cfg Config) zerolog.Logger {
	base := cfg.Output
	if base == nil {
		base = os.Stderr
	}

	var output = base
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        base,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(output).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// NewFromEnv creates a logger based on environment variables
// STREAKWATCH_LOG_LEVEL: trace, debug, info, warn, error (default: info)
// STREAKWATCH_LOG_FORMAT: json, console (default: console)
func NewFromEnv() zerolog.Logger {
	cfg := DefaultConfig()
	applyEnv(&cfg)
	return New(cfg)
}

// NewFromSettings builds a logger from configured level, format and an
// optional log file. STREAKWATCH_LOG_* env vars still take precedence over
// the configured values. A log file that cannot be opened falls back to
// stderr.
func NewFromSettings(level, format, filename string) zerolog.Logger {
	cfg := DefaultConfig()

	if lvl, ok := parseLevel(level); ok {
		cfg.Level = lvl
	}
	switch format {
	case "json", "console":
		cfg.Format = format
	}
	if filename != "" {
		if f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			cfg.Output = f
		}
	}

	applyEnv(&cfg)
	return New(cfg)
}

func applyEnv(cfg *Config) {
	if level := os.Getenv("STREAKWATCH_LOG_LEVEL"); level != "" {
		if lvl, ok := parseLevel(level); ok {
			cfg.Level = lvl
		}
	}

	if format := os.Getenv("STREAKWATCH_LOG_FORMAT"); format != "" {
		switch format {
		case "json", "console":
			cfg.Format = format
		}
	}
}

func parseLevel(level string) (zerolog.Level, bool) {
	switch level {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	default:
		return zerolog.NoLevel, false
	}
}

var (
	globalMu sync.RWMutex
	global   = NewFromEnv()
)

// SetGlobal replaces the process-wide logger used by the package-level helpers.
func SetGlobal(logger zerolog.Logger) {
	globalMu.Lock()
	global = logger
	globalMu.Unlock()
}

// Global returns the process-wide logger.
func Global() zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Debug logs a message at debug level through the global logger.
func Debug(msg string) { l := Global(); l.Debug().Msg(msg) }

// Info logs a message at info level through the global logger.
func Info(msg string) { l := Global(); l.Info().Msg(msg) }

// Warn logs a message at warn level through the global logger.
func Warn(msg string) { l := Global(); l.Warn().Msg(msg) }

// Error logs a message at error level through the global logger.
func Error(msg string) { l := Global(); l.Error().Msg(msg) }
