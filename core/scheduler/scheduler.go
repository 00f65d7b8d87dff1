package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/oncall/core/assign"
	"github.com/kilianp07/oncall/core/calendar"
	"github.com/kilianp07/oncall/core/errs"
	"github.com/kilianp07/oncall/core/events"
	"github.com/kilianp07/oncall/core/flow"
	"github.com/kilianp07/oncall/core/history"
	"github.com/kilianp07/oncall/core/logger"
	"github.com/kilianp07/oncall/core/monitoring"
	"github.com/kilianp07/oncall/internal/eventbus"
)

// Run is the outcome of one successful scheduling run. An understaffed
// schedule is still a Run; check Result.Infeasible.
type Run struct {
	ID       string
	Source   string
	Year     int
	Window   *calendar.Window
	Result   *assign.Result
	Started  time.Time
	Duration time.Duration
}

// Scheduler executes requests against a fixed configuration.
type Scheduler struct {
	cfg     Config
	gen     *calendar.Generator
	builder *assign.Builder
	log     logger.Logger
	bus     *eventbus.Bus[events.RunEvent]
	store   history.Store
	now     func() time.Time
	newID   func() string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the run logger.
func WithLogger(l logger.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithBus publishes run events on b.
func WithBus(b *eventbus.Bus[events.RunEvent]) Option { return func(s *Scheduler) { s.bus = b } }

// WithStore records every run in st.
func WithStore(st history.Store) Option { return func(s *Scheduler) { s.store = st } }

// WithGenerator replaces the default calendar rules.
func WithGenerator(g *calendar.Generator) Option { return func(s *Scheduler) { s.gen = g } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }

// WithIDs overrides run ID generation.
func WithIDs(f func() string) Option { return func(s *Scheduler) { s.newID = f } }

// New validates cfg and builds a Scheduler.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var solverOpts []flow.Option
	if cfg.MaxPhases > 0 {
		solverOpts = append(solverOpts, flow.WithMaxPhases(cfg.MaxPhases))
	}
	s := &Scheduler{
		cfg:     cfg,
		builder: assign.NewBuilder(flow.NewSolver(solverOpts...)),
		log:     logger.NopLogger{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gen == nil {
		g, err := calendar.NewGenerator(calendar.DefaultRules())
		if err != nil {
			return nil, err
		}
		s.gen = g
	}
	return s, nil
}

// Config returns the scheduler's effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// Window generates the calendar window for year with the scheduler's rules.
func (s *Scheduler) Window(year int) (*calendar.Window, error) {
	return s.gen.Generate(year)
}

// Run executes req. source labels where the request came from (a file path,
// an MQTT topic). Errors are ValidationError, ConfigurationError or
// flow.ErrSolveAborted; anything else is unexpected and reported to
// monitoring.
func (s *Scheduler) Run(ctx context.Context, req Request, source string) (*Run, error) {
	run := &Run{ID: s.newID(), Source: source, Year: req.Year, Started: s.now()}
	if run.Year == 0 {
		run.Year = s.cfg.Year
	}
	s.publish(events.RunEvent{Kind: events.RunStarted, RunID: run.ID, Source: source, Year: run.Year, Time: run.Started})
	s.log.Debugw("schedule run started", map[string]any{"run_id": run.ID, "source": source, "year": run.Year, "residents": len(req.Residents)})

	if t := s.cfg.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	res, err := s.execute(ctx, req, run)
	run.Duration = s.now().Sub(run.Started)
	if err != nil {
		s.fail(ctx, run, len(req.Residents), err)
		return nil, err
	}
	run.Result = res
	s.complete(ctx, run, len(req.Residents))
	return run, nil
}

func (s *Scheduler) execute(ctx context.Context, req Request, run *Run) (*assign.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	w, err := s.gen.Generate(run.Year)
	if err != nil {
		return nil, err
	}
	run.Window = w
	p, err := req.problem(s.cfg)
	if err != nil {
		return nil, err
	}
	p.Window = w
	return s.builder.Assign(ctx, p)
}

func (s *Scheduler) complete(ctx context.Context, run *Run, residents int) {
	res := run.Result
	status := history.StatusFeasible
	if res.Infeasible {
		status = history.StatusInfeasible
	}
	fields := map[string]any{
		"run_id":     run.ID,
		"year":       run.Year,
		"status":     status,
		"total_flow": res.TotalFlow,
		"required":   res.Required,
		"unmet_days": len(res.Unmet),
		"phases":     res.Solve.Phases,
		"load_mean":  res.Stats.Mean,
		"load_std":   res.Stats.StdDev,
		"duration":   run.Duration.String(),
	}
	if res.Infeasible {
		s.log.Warnf("schedule %s for %d is understaffed: %d of %d resident-days covered, %d days unmet",
			run.ID, run.Year, res.TotalFlow, res.Required, len(res.Unmet))
	}
	s.log.Infow("schedule run finished", fields)

	s.publish(events.RunEvent{
		Kind:          events.RunCompleted,
		RunID:         run.ID,
		Source:        run.Source,
		Year:          run.Year,
		Time:          s.now(),
		Residents:     residents,
		CallDays:      run.Window.Len(),
		Required:      res.Required,
		TotalFlow:     res.TotalFlow,
		Infeasible:    res.Infeasible,
		UnmetDays:     len(res.Unmet),
		Phases:        res.Solve.Phases,
		Augmentations: res.Solve.Augmentations,
		Load:          res.Load,
		LoadMean:      res.Stats.Mean,
		LoadStdDev:    res.Stats.StdDev,
		Duration:      run.Duration,
	})

	rec := history.Record{
		RunID:       run.ID,
		Timestamp:   run.Started,
		Source:      run.Source,
		Year:        run.Year,
		Status:      status,
		Residents:   residents,
		CallDays:    run.Window.Len(),
		Required:    res.Required,
		TotalFlow:   res.TotalFlow,
		Load:        res.Load,
		Assignments: res.Assignments,
		DurationMS:  float64(run.Duration.Microseconds()) / 1000,
	}
	for _, u := range res.Unmet {
		rec.UnmetDays = append(rec.UnmetDays, u.Day.ID())
	}
	s.record(ctx, rec)
}

func (s *Scheduler) fail(ctx context.Context, run *Run, residents int, err error) {
	kind := FailureKind(err)
	if kind == events.FailureInternal {
		monitoring.CaptureException(err, map[string]string{"module": "scheduler", "run_id": run.ID})
		s.log.Errorf("schedule run %s failed: %v", run.ID, err)
	} else {
		s.log.Warnf("schedule run %s rejected (%s): %v", run.ID, kind, err)
	}
	s.publish(events.RunEvent{
		Kind: events.RunFailed, RunID: run.ID, Source: run.Source, Year: run.Year, Time: s.now(),
		Residents: residents, Duration: run.Duration, FailureKind: kind, Err: err,
	})
	s.record(ctx, history.Record{
		RunID:      run.ID,
		Timestamp:  run.Started,
		Source:     run.Source,
		Year:       run.Year,
		Status:     history.StatusFailed,
		Residents:  residents,
		Error:      err.Error(),
		DurationMS: float64(run.Duration.Microseconds()) / 1000,
	})
}

// record stores rec without the run's deadline so an aborted solve is still
// written down.
func (s *Scheduler) record(ctx context.Context, rec history.Record) {
	if s.store == nil {
		return
	}
	if err := s.store.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Errorf("history append for run %s: %v", rec.RunID, err)
	}
}

func (s *Scheduler) publish(ev events.RunEvent) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// FailureKind classifies a run error for events and metrics.
func FailureKind(err error) string {
	switch {
	case errs.IsValidation(err):
		return events.FailureValidation
	case errs.IsConfiguration(err):
		return events.FailureConfiguration
	case errors.Is(err, flow.ErrSolveAborted):
		return events.FailureAborted
	default:
		return events.FailureInternal
	}
}
