package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/recaplab/recap-api/internal/lease"
)

// Clock abstracts time for the scheduler so cycle cadence and the weekend
// window are testable without waiting.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the stoppable tick source a Clock hands out.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// NewRealClock returns a Clock backed by the system clock.
func NewRealClock() Clock { return realClock{} }

// WeekendWindow reports whether batches are expected to start or finish
// around t: Friday evening through early Monday, when weekly batches are
// submitted and the provider's turnaround window elapses.
func WeekendWindow(t time.Time) bool {
	t = t.UTC()
	switch t.Weekday() {
	case time.Friday:
		return t.Hour() >= 18
	case time.Saturday, time.Sunday:
		return true
	case time.Monday:
		return t.Hour() < 6
	default:
		return false
	}
}

// SchedulerOptions configures the polling loop.
type SchedulerOptions struct {
	// Interval is the cadence between cycles.
	Interval time.Duration

	// CycleTimeout bounds one full cycle (polling, consumption, sweep).
	CycleTimeout time.Duration

	// Window, when non-nil, restricts cycles to times where it returns
	// true. Ticks outside the window are skipped silently.
	Window func(time.Time) bool

	// Lease, when non-nil, is acquired before each cycle so only one
	// replica runs the pipeline. A held lease skips the cycle.
	Lease lease.Lease
}

// Scheduler runs poll cycles and retention sweeps on a fixed cadence.
type Scheduler struct {
	poller  *Poller
	janitor *Janitor
	clock   Clock
	opts    SchedulerOptions
	logger  *slog.Logger
}

// NewScheduler creates a Scheduler. Pass a nil clock to use the system clock.
func NewScheduler(poller *Poller, janitor *Janitor, clock Clock, opts SchedulerOptions, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = NewRealClock()
	}
	return &Scheduler{
		poller:  poller,
		janitor: janitor,
		clock:   clock,
		opts:    opts,
		logger:  logger.With(slog.String("component", "pipeline_scheduler")),
	}
}

// Run blocks until ctx is cancelled, executing one cycle immediately and
// then one per interval tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.InfoContext(ctx, "pipeline scheduler started",
		slog.Duration("interval", s.opts.Interval),
		slog.Duration("cycle_timeout", s.opts.CycleTimeout),
		slog.Bool("windowed", s.opts.Window != nil),
		slog.Bool("leased", s.opts.Lease != nil))

	ticker := s.clock.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("pipeline scheduler stopped")
			return
		case <-ticker.C():
			s.runCycle(ctx)
		}
	}
}

// runCycle executes one guarded, time-bounded cycle. A panic escaping the
// cycle body (janitor, lease plumbing) is logged instead of crashing the
// scheduler goroutine; the next tick runs normally.
func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "pipeline cycle panicked",
				slog.Any("panic", r))
		}
	}()

	if s.opts.Window != nil && !s.opts.Window(s.clock.Now()) {
		s.logger.DebugContext(ctx, "outside polling window, cycle skipped")
		return
	}

	if s.opts.Lease != nil {
		ok, err := s.opts.Lease.Acquire(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "lease acquisition failed, cycle skipped",
				slog.String("error", err.Error()))
			return
		}
		if !ok {
			return
		}
		defer func() {
			if err := s.opts.Lease.Release(ctx); err != nil {
				s.logger.WarnContext(ctx, "lease release failed",
					slog.String("error", err.Error()))
			}
		}()
	}

	cctx, cancel := context.WithTimeout(ctx, s.opts.CycleTimeout)
	defer cancel()

	if err := s.poller.PollCycle(cctx); err != nil {
		s.logger.ErrorContext(cctx, "poll cycle failed", slog.String("error", err.Error()))
	}
	if _, err := s.janitor.Sweep(cctx); err != nil {
		s.logger.ErrorContext(cctx, "retention sweep failed", slog.String("error", err.Error()))
	}
}
