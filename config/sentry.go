package config

import "time"

// SentryConfig defines settings for Sentry error monitoring. An empty DSN
// disables reporting.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
	// FlushSeconds bounds how long shutdown waits for queued events.
	FlushSeconds int `json:"flush_seconds"`
}

// SetDefaults applies sane defaults.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.FlushSeconds <= 0 {
		c.FlushSeconds = 2
	}
}

// FlushTimeout returns FlushSeconds as a duration.
func (c SentryConfig) FlushTimeout() time.Duration {
	return time.Duration(c.FlushSeconds) * time.Second
}
