package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()
	userID := "user1"
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		ActivityType: activity.TypeSpaceSubmitted,
		Summary:      "submitted",
	}

	repo.On("Log", ctx, userID, entry).Return(nil)
	repo.On("List", ctx, userID, activity.ListActivityOptions{Limit: activity.DefaultListLimit}).Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, clock.NewFake(now), nil)
	require.NoError(t, svc.LogActivity(ctx, userID, entry))
	require.Equal(t, now, entry.CreatedAt)
	require.Equal(t, userID, entry.UserID)

	list, err := svc.GetRecentActivity(ctx, userID, activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil, nil)

	require.ErrorIs(t, svc.LogActivity(ctx, "user1", nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(ctx, "", &activity.ActivityEntry{ActivityType: activity.TypeRewardClaimed}), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(ctx, "user1", &activity.ActivityEntry{ActivityType: "record_created"}), activity.ErrInvalidInput)

	bogus := activity.ActivityType("bogus")
	_, err := svc.GetRecentActivity(ctx, "user1", activity.ListActivityOptions{ActivityType: &bogus})
	require.ErrorIs(t, err, activity.ErrInvalidInput)

	repo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}
