package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/registry"
	"github.com/rpggio/spacetracker/internal/domain/space"
	"github.com/rpggio/spacetracker/internal/domain/submission"
	"github.com/rpggio/spacetracker/internal/domain/tracker"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	reqs  []submission.Request
	res   submission.Result
	err   error
	block chan struct{}
}

func (f *fakeSubmitter) SubmitSpace(_ context.Context, req submission.Request) (submission.Result, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

type outcomeLog struct {
	mu       sync.Mutex
	outcomes []registry.RewardOutcome
}

func (o *outcomeLog) RecordRewardOutcome(_ context.Context, outcome registry.RewardOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func endedSession() registry.Notification {
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Minute)
	return registry.Notification{
		Type: tracker.EventEnded,
		Session: space.Session{
			ID: "s1", SpaceID: "1mnxeNVXrYvKX", Title: "State of Type", Host: "Tex",
			StartTime: start, EndTime: &end, LastSeenAt: end, DurationMinutes: 3,
			RewardEligible: true, EndReason: space.EndLeft,
		},
		RewardEligible: true,
	}
}

func TestSubmitter_RecordsGrant(t *testing.T) {
	client := &fakeSubmitter{res: submission.Result{
		Success: true, SpaceTrackingID: "trk-1", EligibleForGrant: true, RewardGranted: true, RewardAmount: 11, RewardID: "r1",
	}}
	outcomes := &outcomeLog{}
	s := NewSubmitter(client, outcomes, time.Second, nil)

	s.Listen(registry.Notification{Type: tracker.EventStarted})
	s.Listen(registry.Notification{Type: tracker.EventHeartbeat})
	s.Listen(endedSession())
	require.NoError(t, s.Wait(context.Background()))

	require.Len(t, client.reqs, 1)
	require.Equal(t, "1mnxeNVXrYvKX", client.reqs[0].SpaceID)
	require.Nil(t, client.reqs[0].RewardAmount)

	require.Len(t, outcomes.outcomes, 1)
	got := outcomes.outcomes[0]
	require.Equal(t, "s1", got.SessionID)
	require.True(t, got.Granted)
	require.Equal(t, 11, got.Amount)
	require.Equal(t, "r1", got.RewardID)
	require.Empty(t, got.Error)
}

func TestSubmitter_FailureIsRecordedNotRetried(t *testing.T) {
	client := &fakeSubmitter{err: errors.New("connection refused")}
	outcomes := &outcomeLog{}
	s := NewSubmitter(client, outcomes, time.Second, nil)

	s.Listen(endedSession())
	require.NoError(t, s.Wait(context.Background()))

	require.Len(t, client.reqs, 1)
	require.Len(t, outcomes.outcomes, 1)
	require.False(t, outcomes.outcomes[0].Granted)
	require.Contains(t, outcomes.outcomes[0].Error, "connection refused")
}

func TestSubmitter_ListenDoesNotBlock(t *testing.T) {
	client := &fakeSubmitter{block: make(chan struct{})}
	s := NewSubmitter(client, &outcomeLog{}, time.Second, nil)

	done := make(chan struct{})
	go func() {
		s.Listen(endedSession())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen blocked on the network call")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	close(client.block)
	require.NoError(t, s.Wait(context.Background()))
}
