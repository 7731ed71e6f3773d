// Package config loads ambient runtime settings for the radar CLI from
// environment variables, with defaults matching orchestrator.DefaultConfig
// and pkg/logging.Config.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the environment-derived settings the CLI applies on top
// of orchestrator.DefaultConfig() and logging.NewLogger() before running
// a scan or test.
type Config struct {
	Logging    LoggingConfig
	Orchestrator OrchestratorConfig
}

// LoggingConfig mirrors pkg/logging.Config's tunables.
type LoggingConfig struct {
	Level     string
	JSONFormat bool
}

// OrchestratorConfig mirrors internal/orchestrator.Config's tunables.
type OrchestratorConfig struct {
	DefaultTimeout         time.Duration
	IncludeProjectSnapshot bool
}

// Load reads RADAR_* environment variables, falling back to the same
// defaults orchestrator.DefaultConfig() and logging.NewLogger() use when
// a variable is unset or unparseable.
func Load() Config {
	return Config{
		Logging: LoggingConfig{
			Level:      getEnvString("RADAR_LOG_LEVEL", "info"),
			JSONFormat: getEnvBool("RADAR_LOG_JSON", true),
		},
		Orchestrator: OrchestratorConfig{
			DefaultTimeout:         getEnvDuration("RADAR_DEFAULT_TIMEOUT", 10*time.Minute),
			IncludeProjectSnapshot: getEnvBool("RADAR_INCLUDE_PROJECT_SNAPSHOT", true),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
