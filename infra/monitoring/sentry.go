// Package monitoring wires the Sentry error tracker behind core/monitoring.
package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/oncall/config"
	coremon "github.com/kilianp07/oncall/core/monitoring"
)

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN disables reporting.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &sentryMonitor{hub: sentry.CurrentHub()}, nil
}

type sentryMonitor struct {
	hub *sentry.Hub
}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		s.hub.CaptureException(err)
	})
}

func (s *sentryMonitor) CapturePanic(v any) {
	s.hub.Recover(v)
}

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
