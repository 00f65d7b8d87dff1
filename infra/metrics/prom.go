package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/oncall/core/metrics"
)

// PromSink records scheduling runs in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
	coverage prometheus.Gauge
	unmet    prometheus.Gauge
	phases   prometheus.Histogram
	load     *prometheus.GaugeVec
}

// PromConfig configures a PromSink.
type PromConfig struct {
	// Namespace prefixes every metric name. Defaults to "oncall".
	Namespace string `json:"namespace"`
}

// NewPromSink registers scheduling metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(cfg PromConfig, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = "oncall"
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "runs_total",
			Help: "Completed scheduling runs by outcome",
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "run_failures_total",
			Help: "Scheduling runs that produced no schedule, by failure kind",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "run_duration_seconds",
			Help:    "Wall time of a scheduling run",
			Buckets: prometheus.DefBuckets,
		}),
		coverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "last_run_coverage_ratio",
			Help: "Staffed fraction of required resident-days in the last run",
		}),
		unmet: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Name: "last_run_unmet_days",
			Help: "Understaffed call days in the last run",
		}),
		phases: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Name: "solver_phases",
			Help:    "Dinic phases per solve",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		load: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: "resident_calls",
			Help: "Calls assigned to each resident in the last run",
		}, []string{"resident_id"}),
	}

	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, s.failures); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.coverage, err = register(reg, s.coverage); err != nil {
		return nil, err
	}
	if s.unmet, err = register(reg, s.unmet); err != nil {
		return nil, err
	}
	if s.phases, err = register(reg, s.phases); err != nil {
		return nil, err
	}
	if s.load, err = register(reg, s.load); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun implements coremetrics.MetricsSink.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	outcome := "feasible"
	if ev.Infeasible {
		outcome = "infeasible"
	}
	s.runs.WithLabelValues(outcome).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	s.coverage.Set(ev.Coverage())
	s.unmet.Set(float64(ev.UnmetDays))
	s.phases.Observe(float64(ev.Phases))
	return nil
}

// RecordLoad replaces the per-resident gauges with the run's load.
func (s *PromSink) RecordLoad(ev coremetrics.LoadEvent) error {
	s.load.Reset()
	for id, n := range ev.Load {
		s.load.WithLabelValues(id).Set(float64(n))
	}
	return nil
}

// RecordFailure counts a failed run.
func (s *PromSink) RecordFailure(ev coremetrics.FailureEvent) error {
	s.failures.WithLabelValues(ev.Kind).Inc()
	return nil
}
