// Package config loads the service configuration from a YAML or JSON file
// with K_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/oncall/core/history"
	"github.com/kilianp07/oncall/core/metrics"
	"github.com/kilianp07/oncall/core/scheduler"
	"github.com/kilianp07/oncall/infra/mqtt"
)

type Config struct {
	Scheduler scheduler.Config `json:"scheduler"`
	History   history.Config   `json:"history"`
	Metrics   metrics.Config   `json:"metrics"`
	MQTT      mqtt.Config      `json:"mqtt"`
	Server    ServerConfig     `json:"server"`
	Logging   LoggingConfig    `json:"logging"`
	Sentry    SentryConfig     `json:"sentry"`
}

// EnvPrefix marks environment overrides: K_SCHEDULER__YEAR=2026 sets
// scheduler.year.
const EnvPrefix = "K_"

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section's defaults.
func (c *Config) SetDefaults() {
	c.Scheduler.SetDefaults()
	c.History.SetDefaults()
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.MQTT.Enabled() {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	return nil
}
