package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/registry"
	"github.com/rpggio/spacetracker/internal/domain/space"
	"github.com/rpggio/spacetracker/internal/domain/submission"
	"github.com/rpggio/spacetracker/internal/domain/tracker"
)

// SpaceSubmitter sends finished sessions to the backend.
type SpaceSubmitter interface {
	SubmitSpace(ctx context.Context, req submission.Request) (submission.Result, error)
}

// OutcomeRecorder keeps the local reward history.
type OutcomeRecorder interface {
	RecordRewardOutcome(ctx context.Context, outcome registry.RewardOutcome)
}

// Submitter posts every ended session once, off the tracker's goroutine.
// A failed post is recorded and not retried.
type Submitter struct {
	client   SpaceSubmitter
	outcomes OutcomeRecorder
	timeout  time.Duration
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewSubmitter creates a Submitter. Each post is bounded by timeout.
func NewSubmitter(client SpaceSubmitter, outcomes OutcomeRecorder, timeout time.Duration, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Submitter{client: client, outcomes: outcomes, timeout: timeout, logger: logger}
}

// Listen is a registry.Listener. It returns immediately.
func (s *Submitter) Listen(n registry.Notification) {
	if n.Type != tracker.EventEnded {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.submit(n)
	}()
}

// Wait blocks until in-flight submissions finish or ctx is done.
func (s *Submitter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Submitter) submit(n registry.Notification) {
	sess := n.Session
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req := RequestFor(sess)
	outcome := registry.RewardOutcome{SessionID: sess.ID}

	res, err := s.client.SubmitSpace(ctx, req)
	if err != nil {
		outcome.Error = err.Error()
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn("space submission rejected", "session_id", sess.ID, "status", apiErr.Status, "code", apiErr.Code)
		} else {
			s.logger.Warn("space submission failed", "session_id", sess.ID, "error", err)
		}
	} else {
		outcome.SpaceTrackingID = res.SpaceTrackingID
		outcome.EligibleForGrant = res.EligibleForGrant
		outcome.Granted = res.RewardGranted
		outcome.Amount = res.RewardAmount
		outcome.RewardID = res.RewardID
		s.logger.Info("space submitted",
			"session_id", sess.ID,
			"tracking_id", res.SpaceTrackingID,
			"eligible", res.EligibleForGrant,
			"granted", res.RewardGranted,
			"amount", res.RewardAmount)
	}

	s.outcomes.RecordRewardOutcome(ctx, outcome)
}

// RequestFor builds the submission body for a finished session. Sessions
// identified only by title and host are submitted under their local ID.
func RequestFor(sess space.Session) submission.Request {
	spaceID := sess.SpaceID
	if spaceID == "" {
		spaceID = sess.ID
	}
	start := sess.StartTime
	end := sess.LastSeenAt
	if sess.EndTime != nil {
		end = *sess.EndTime
	}
	duration := sess.DurationMinutes
	return submission.Request{
		SpaceID:   spaceID,
		Title:     sess.Title,
		Host:      sess.Host,
		StartTime: &start,
		EndTime:   &end,
		Duration:  &duration,
	}
}
