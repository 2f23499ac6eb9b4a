package main

import (
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rpggio/spacetracker/internal/agent"
	"github.com/rpggio/spacetracker/internal/domain/registry"
	"github.com/rpggio/spacetracker/internal/domain/tracker"
	"github.com/rpggio/spacetracker/internal/sqlite"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run the tracking agent",
	Long: `Poll the observer endpoint for the open Space, track sessions, and submit
each finished session to the backend. Page scripts can POST to /notify on the
control address to trigger an immediate detection pass.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Agent.ObserverURL == "" {
			return errors.New("agent.observer_url is required")
		}
		if cfg.Agent.Token == "" {
			return errors.New("agent.token is required")
		}
		logger, closeLog := newLogger(cfg.Log)
		defer closeLog()

		state, err := openDB(cfg.Agent.StatePath)
		if err != nil {
			return fmt.Errorf("opening agent state: %w", err)
		}
		defer state.Close()

		a := agent.New(
			sqlite.NewKVStore(state),
			agent.NewHTTPObserver(cfg.Agent.ObserverURL, nil),
			agent.NewBackendClient(cfg.Agent.BackendURL, cfg.Agent.Token, nil),
			nil,
			agent.Options{
				Tracker: tracker.Options{
					MinDurationMinutes: cfg.Tracker.MinDurationMinutes,
					AbandonTimeout:     cfg.Tracker.AbandonTimeout,
				},
				Runner: cfg.Tracker.RunnerConfig(),
				Registry: registry.Options{
					MinDurationMinutes: cfg.Tracker.MinDurationMinutes,
					AbandonTimeout:     cfg.Tracker.AbandonTimeout,
					HistoryLimit:       cfg.Tracker.HistoryLimit,
				},
			},
			logger,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		control := &http.Server{
			Addr:              cfg.Agent.ControlAddr,
			Handler:           a.Control(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		controlErr := make(chan error, 1)
		go func() {
			controlErr <- serveUntilDone(ctx, logger, control)
		}()

		runErr := a.Run(ctx)
		stop()
		if err := <-controlErr; err != nil {
			logger.Error("control server", "error", err)
		}
		return runErr
	},
}
