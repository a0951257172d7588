// Package config provides validation utilities for configuration values.
package config

import (
	"fmt"
	"strings"
)

// validateConfig performs validation of configuration values.
func validateConfig(config *Config) error {
	var validationErrors []string

	if config.Database.QueryTimeout < 0 {
		validationErrors = append(validationErrors, "database.query_timeout must be non-negative")
	}

	if config.Backend.RequestTimeout < 0 {
		validationErrors = append(validationErrors, "backend.request_timeout must be non-negative")
	}

	for _, kw := range config.Blocking.ExtraKeywords {
		if strings.TrimSpace(kw) == "" {
			validationErrors = append(validationErrors, "blocking.extra_keywords must not contain empty entries")
			break
		}
	}

	switch config.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
		// Valid
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.level must be one of: trace, debug, info, warn, error (got: %s)", config.Logging.Level))
	}

	switch config.Logging.Format {
	case "", "json", "console":
		// Valid
	default:
		validationErrors = append(validationErrors, fmt.Sprintf("logging.format must be one of: json, console (got: %s)", config.Logging.Format))
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}

	return nil
}
