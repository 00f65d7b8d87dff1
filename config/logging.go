package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig controls the process-wide log level.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
