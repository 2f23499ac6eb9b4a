package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/domain/registry"
	"github.com/rpggio/spacetracker/internal/domain/tracker"
)

// Options tunes an Agent.
type Options struct {
	Tracker       tracker.Options
	Runner        tracker.RunnerConfig
	Registry      registry.Options
	SubmitTimeout time.Duration
	// DrainTimeout bounds how long Run waits for in-flight submissions on
	// shutdown.
	DrainTimeout time.Duration
}

// Agent is one tracking context: a tracker driven by a runner, the registry
// it reports to, and the submitter that forwards ended sessions.
type Agent struct {
	Tracker   *tracker.Tracker
	Registry  *registry.Registry
	Runner    *tracker.Runner
	Submitter *Submitter

	drain  time.Duration
	logger *slog.Logger
}

// New wires an Agent. store holds registry state across restarts.
func New(store registry.Store, observer tracker.Observer, client SpaceSubmitter, clk clock.Clock, opts Options, logger *slog.Logger) *Agent {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 5 * time.Second
	}

	tr := tracker.New(clk, opts.Tracker)
	reg := registry.New(store, clk, opts.Registry, logger)
	sub := NewSubmitter(client, reg, opts.SubmitTimeout, logger)
	reg.Subscribe(sub.Listen)

	return &Agent{
		Tracker:   tr,
		Registry:  reg,
		Runner:    tracker.NewRunner(tr, observer, reg, opts.Runner, logger),
		Submitter: sub,
		drain:     opts.DrainTimeout,
		logger:    logger,
	}
}

// Restore reloads persisted state and resumes a fresh active session.
// Sessions abandoned while the agent was down are finalized and submitted.
func (a *Agent) Restore(ctx context.Context) error {
	active, err := a.Registry.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restoring registry: %w", err)
	}
	if active != nil && a.Tracker.Resume(*active) {
		a.logger.Info("resumed session", "session_id", active.ID, "space_id", active.SpaceID)
	}
	return nil
}

// Run restores state and tracks until ctx is canceled, then drains pending
// submissions.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.Restore(ctx); err != nil {
		return err
	}
	err := a.Runner.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), a.drain)
	defer cancel()
	if werr := a.Submitter.Wait(drainCtx); werr != nil {
		a.logger.Warn("pending submissions dropped", "error", werr)
	}
	return err
}

// Control returns the local control endpoints for this agent.
func (a *Agent) Control() http.Handler {
	return NewControlServer(a.Runner, a.Registry)
}
