package metrics_test

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	metrics "github.com/kilianp07/oncall/core/metrics"
	_ "github.com/kilianp07/oncall/infra/metrics"
)

// Test decoding a YAML sink list with per-sink settings.
func TestMetricsConfigDecodeYAML(t *testing.T) {
	data := `sinks:
  - type: nop
  - type: prometheus
    conf:
      namespace: oncall_decode
`
	var cfg metrics.Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if len(cfg.Sinks) != 2 || cfg.Sinks[1].Conf["namespace"] != "oncall_decode" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	s, err := metrics.NewMetricsSink(cfg.Sinks)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := s.(*metrics.MultiSink); !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
}

// Test decoding from JSON with an unknown sink type.
func TestMetricsConfigDecodeJSON_Invalid(t *testing.T) {
	data := `{"sinks":[{"type":"nop"},{"type":"missing"}]}`
	var cfg metrics.Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if _, err := metrics.NewMetricsSink(cfg.Sinks); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
