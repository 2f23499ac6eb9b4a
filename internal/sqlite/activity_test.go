package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	entry1 := &activity.ActivityEntry{
		ActivityType: activity.TypeSpaceSubmitted,
		Summary:      "Submitted space",
		Details:      `{"spaceId":"x"}`,
		CreatedAt:    base,
	}
	entry2 := &activity.ActivityEntry{
		ActivityType: activity.TypeRewardGranted,
		Summary:      "Granted 5 points",
		CreatedAt:    base.Add(time.Second),
	}

	require.NoError(t, repo.Log(ctx, "user1", entry1))
	require.NoError(t, repo.Log(ctx, "user1", entry2))
	require.NotZero(t, entry1.ID)
	require.Equal(t, "user1", entry1.UserID)

	entries, err := repo.List(ctx, "user1", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Equal(t, `{"spaceId":"x"}`, entries[1].Details)
}

func TestActivityRepository_FiltersAndUserIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	trackingID := "t1"
	rewardID := "r1"
	entry := &activity.ActivityEntry{
		SpaceTrackingID: &trackingID,
		RewardID:        &rewardID,
		ActivityType:    activity.TypeRewardGranted,
		Summary:         "Granted",
		Details:         "{}",
	}
	require.NoError(t, repo.Log(ctx, "user1", entry))
	require.NoError(t, repo.Log(ctx, "user1", &activity.ActivityEntry{ActivityType: activity.TypeSpaceSubmitted, Summary: "Submitted"}))

	activityType := activity.TypeRewardGranted
	opts := activity.ListActivityOptions{
		SpaceTrackingID: &trackingID,
		RewardID:        &rewardID,
		ActivityType:    &activityType,
	}
	entries, err := repo.List(ctx, "user1", opts)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "t1", *entries[0].SpaceTrackingID)

	entries, err = repo.List(ctx, "user1", activity.ListActivityOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = repo.List(ctx, "user2", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 0)
}
