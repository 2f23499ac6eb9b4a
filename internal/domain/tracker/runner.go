package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/space"
)

// Observer samples the hosting page for the current space, if any.
type Observer interface {
	Observe(ctx context.Context) (space.Observation, error)
}

// Sink receives tracker events in order.
type Sink interface {
	HandleEvent(ctx context.Context, ev Event)
}

// RunnerConfig tunes the detection loop.
type RunnerConfig struct {
	PollInterval     time.Duration
	CoalesceDelay    time.Duration
	SweepInterval    time.Duration
	FailureThreshold int
}

// DefaultRunnerConfig returns the stock loop timings.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		PollInterval:     5 * time.Second,
		CoalesceDelay:    500 * time.Millisecond,
		SweepInterval:    5 * time.Minute,
		FailureThreshold: 3,
	}
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	def := DefaultRunnerConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.CoalesceDelay < 0 {
		c.CoalesceDelay = 0
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	return c
}

// Runner drives a Tracker from a single goroutine. Poll ticks, pushed
// notifications and sweeps all funnel through Run, so the state machine is
// never entered concurrently.
type Runner struct {
	tracker  *Tracker
	observer Observer
	sink     Sink
	cfg      RunnerConfig
	logger   *slog.Logger

	triggers chan struct{}
	failures int
}

// NewRunner creates a Runner.
func NewRunner(tr *Tracker, observer Observer, sink Sink, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		tracker:  tr,
		observer: observer,
		sink:     sink,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		triggers: make(chan struct{}, 1),
	}
}

// Notify requests a detection pass. Calls never block; bursts coalesce.
func (r *Runner) Notify() {
	select {
	case r.triggers <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(r.cfg.SweepInterval)
	defer sweep.Stop()

	r.logger.Info("tracker started",
		"poll_interval", r.cfg.PollInterval,
		"sweep_interval", r.cfg.SweepInterval,
		"min_duration_minutes", r.tracker.MinDurationMinutes())

	r.detect(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("tracker stopped")
			return nil
		case <-poll.C:
			r.coalesce(ctx, poll.C)
			r.detect(ctx)
		case <-r.triggers:
			r.coalesce(ctx, poll.C)
			r.detect(ctx)
		case <-sweep.C:
			r.sweep(ctx)
		}
	}
}

// coalesce waits out the coalescing delay, absorbing triggers and poll ticks
// that arrive meanwhile.
func (r *Runner) coalesce(ctx context.Context, poll <-chan time.Time) {
	if r.cfg.CoalesceDelay == 0 {
		return
	}
	timer := time.NewTimer(r.cfg.CoalesceDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.triggers:
		case <-poll:
		case <-timer.C:
			return
		}
	}
}

func (r *Runner) detect(ctx context.Context) {
	defer r.recoverPass("detect")

	obs, err := r.observer.Observe(ctx)
	if err != nil {
		r.failures++
		if r.failures < r.cfg.FailureThreshold {
			r.logger.Debug("observation failed", "error", err, "consecutive_failures", r.failures)
			return
		}
		r.logger.Warn("observation unavailable, treating as no space", "error", err, "consecutive_failures", r.failures)
		obs = space.Absent
	} else {
		r.failures = 0
	}

	events, err := r.tracker.Observe(obs)
	if err != nil {
		r.logger.Warn("dropping malformed observation", "error", err)
		return
	}
	r.emit(ctx, events)
}

func (r *Runner) sweep(ctx context.Context) {
	defer r.recoverPass("sweep")

	events := r.tracker.Sweep()
	if len(events) > 0 {
		r.logger.Info("abandoned session finalized", "session_id", events[0].Session.ID)
	}
	r.emit(ctx, events)
}

func (r *Runner) emit(ctx context.Context, events []Event) {
	for _, ev := range events {
		r.sink.HandleEvent(ctx, ev)
	}
}

func (r *Runner) recoverPass(stage string) {
	if p := recover(); p != nil {
		r.logger.Error("tracker pass panicked", "stage", stage, "panic", p)
	}
}
