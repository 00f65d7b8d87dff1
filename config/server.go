package config

// ServerConfig configures the HTTP endpoint exposing Prometheus metrics.
type ServerConfig struct {
	// MetricsAddr is the listen address; "off" disables the endpoint.
	MetricsAddr string `json:"metrics_addr"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9100"
	}
}

// MetricsEnabled reports whether the metrics endpoint should be started.
func (c ServerConfig) MetricsEnabled() bool { return c.MetricsAddr != "off" }
