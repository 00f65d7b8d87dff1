// Package app assembles the scheduler, its history store and the metrics
// pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/oncall/config"
	"github.com/kilianp07/oncall/core/events"
	"github.com/kilianp07/oncall/core/history"
	coremetrics "github.com/kilianp07/oncall/core/metrics"
	"github.com/kilianp07/oncall/core/monitoring"
	coremqtt "github.com/kilianp07/oncall/core/mqtt"
	"github.com/kilianp07/oncall/core/scheduler"
	"github.com/kilianp07/oncall/infra/logger"
	"github.com/kilianp07/oncall/infra/metrics"
	inframon "github.com/kilianp07/oncall/infra/monitoring"
	"github.com/kilianp07/oncall/infra/mqtt"
	"github.com/kilianp07/oncall/internal/eventbus"
)

// Service owns every long-lived component of the process.
type Service struct {
	Scheduler *scheduler.Scheduler
	Store     history.Store

	cfg       *config.Config
	bus       *eventbus.Bus[events.RunEvent]
	log       logger.Logger
	stop      context.CancelFunc
	collector <-chan struct{}
	dial      func(mqtt.Config) (coremqtt.Client, error)
}

// Option configures a Service.
type Option func(*Service)

// WithDialer replaces the MQTT connection factory.
func WithDialer(f func(mqtt.Config) (coremqtt.Client, error)) Option {
	return func(s *Service) { s.dial = f }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	logger.SetGlobalLevel(cfg.Logging.Level)
	logg := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	monitoring.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	bus := eventbus.New[events.RunEvent](eventbus.WithBuffer(64))
	ctx, stop := context.WithCancel(context.Background())
	done := metrics.StartEventCollector(ctx, bus, sink, logger.New("metrics"))

	sched, err := scheduler.New(cfg.Scheduler,
		scheduler.WithLogger(logger.New("scheduler")),
		scheduler.WithBus(bus),
		scheduler.WithStore(store),
	)
	if err != nil {
		stop()
		bus.Close()
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	svc := &Service{
		Scheduler: sched,
		Store:     store,
		cfg:       cfg,
		bus:       bus,
		log:       logg,
		stop:      stop,
		collector: done,
		dial: func(c mqtt.Config) (coremqtt.Client, error) {
			return mqtt.NewPahoClient(c)
		},
	}
	for _, o := range opts {
		o(svc)
	}
	logg.Infow("service ready", map[string]any{
		"history": cfg.History.Backend,
		"sinks":   len(cfg.Metrics.Sinks),
		"mqtt":    cfg.MQTT.Enabled(),
	})
	return svc, nil
}

// Schedule runs one request through the scheduler.
func (s *Service) Schedule(ctx context.Context, req scheduler.Request, source string) (*scheduler.Run, error) {
	return s.Scheduler.Run(ctx, req, source)
}

// Serve answers MQTT scheduling requests and exposes metrics until ctx is
// cancelled. It returns immediately with an error if neither is enabled.
func (s *Service) Serve(ctx context.Context) error {
	if !s.cfg.MQTT.Enabled() && !s.cfg.Server.MetricsEnabled() {
		return errors.New("serve: neither mqtt nor the metrics endpoint is enabled")
	}

	errCh := make(chan error, 1)
	if s.cfg.Server.MetricsEnabled() {
		go func() {
			defer monitoring.Absorb()
			if err := metrics.StartPromServer(ctx, s.cfg.Server.MetricsAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
				errCh <- err
			}
		}()
	}

	var handler *mqtt.RequestHandler
	if s.cfg.MQTT.Enabled() {
		client, err := s.dial(s.cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		defer client.Disconnect()
		handler = mqtt.NewRequestHandler(s.Scheduler, client, s.cfg.MQTT.ResultTopic, logger.New("mqtt_handler"))
		if err := handler.Listen(ctx, client, s.cfg.MQTT.RequestTopic); err != nil {
			return err
		}
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	if handler != nil {
		handler.Wait()
	}
	return err
}

// Close stops the metrics collector and releases the history store.
func (s *Service) Close() error {
	s.bus.Close()
	select {
	case <-s.collector:
	case <-time.After(2 * time.Second):
		s.log.Warnf("metrics collector did not drain")
	}
	s.stop()
	monitoring.Flush(s.cfg.Sentry.FlushTimeout())
	if s.Store != nil {
		return s.Store.Close()
	}
	return nil
}
