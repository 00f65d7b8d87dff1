package history

import "github.com/kilianp07/oncall/core/errs"

// Config selects and configures the history backend.
type Config struct {
	// Backend is "jsonl", "sqlite", "memory" or "none".
	Backend string `json:"backend" yaml:"backend"`
	// Path is the file location of the store.
	Path string `json:"path" yaml:"path"`
	// MaxSizeMB enables rotation of a jsonl store when positive.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "oncall-history.db"
		default:
			c.Path = "oncall-history.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite":
		if c.Path == "" {
			return errs.Configuration("history", "path", "path is required for backend %s", c.Backend)
		}
	case "memory", "none":
	default:
		return errs.Configuration("history", "backend", "unknown backend %q", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return errs.Configuration("history", "rotation", "rotation limits must not be negative")
	}
	return nil
}

// Open builds the configured store. Backend "none" returns nil.
func Open(c Config) (Store, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case "sqlite":
		return NewSQLiteStore(c.Path)
	case "memory":
		return NewMemoryStore(), nil
	case "none":
		return nil, nil
	}
	if c.MaxSizeMB > 0 {
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	}
	return NewJSONLStore(c.Path)
}
