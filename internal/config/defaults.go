// Package config provides default configuration values for streakwatch.
package config

import (
	"time"
)

// Default configuration constants
const (
	defaultQueryTimeoutSec   = 30 // seconds
	defaultBackendTimeoutSec = 15 // seconds
)

// DefaultConfig returns the default configuration values for streakwatch.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			QueryTimeout: time.Second * defaultQueryTimeoutSec,
		},
		Blocking: BlockingConfig{
			ExtraKeywords:  []string{},
			RuleExportPath: "", // resolved against the data dir at load time
			Notify:         true,
		},
		Backend: BackendConfig{
			RequestTimeout: time.Second * defaultBackendTimeoutSec,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
