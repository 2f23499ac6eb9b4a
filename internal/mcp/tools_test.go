package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
	"github.com/stretchr/testify/require"
)

type rewardStub struct {
	stateFn   func(context.Context, string) (reward.StateView, error)
	claimFn   func(context.Context, string, string) (int, error)
	rewardsFn func(context.Context, string, reward.ListOptions) ([]reward.Reward, error)
}

func (s rewardStub) State(ctx context.Context, userID string) (reward.StateView, error) {
	return s.stateFn(ctx, userID)
}
func (s rewardStub) Claim(ctx context.Context, userID, rewardID string) (int, error) {
	return s.claimFn(ctx, userID, rewardID)
}
func (s rewardStub) Rewards(ctx context.Context, userID string, opts reward.ListOptions) ([]reward.Reward, error) {
	return s.rewardsFn(ctx, userID, opts)
}

type spaceStub struct {
	recentFn func(context.Context, string, int) ([]submission.SpaceTracking, error)
}

func (s spaceStub) Recent(ctx context.Context, userID string, limit int) ([]submission.SpaceTracking, error) {
	return s.recentFn(ctx, userID, limit)
}

type activityStub struct {
	recentFn func(context.Context, string, activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

func (s activityStub) GetRecentActivity(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	return s.recentFn(ctx, userID, opts)
}

func connect(t *testing.T, svc Services) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(Config{Services: svc, DefaultUser: "user1"})

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool[T any](t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) T {
	t.Helper()
	res := callToolRaw(t, cs, name, args)
	require.False(t, res.IsError, "tool %s failed: %s", name, resultText(res))

	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	return out
}

func callToolRaw(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func resultText(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func TestTools_RewardState(t *testing.T) {
	day := reward.Day("2026-03-14")
	cs := connect(t, Services{Rewards: rewardStub{
		stateFn: func(_ context.Context, userID string) (reward.StateView, error) {
			require.Equal(t, "user1", userID)
			return reward.StateView{
				UserID: userID, TotalAccumulated: 40, DailyEarned: 12, DailyCap: 100,
				RemainingCap: 88, CurrentStreak: 3, LastRewardDate: &day,
			}, nil
		},
	}})

	state := callTool[RewardStateResponse](t, cs, "get_reward_state", nil)
	require.Equal(t, 40, state.TotalAccumulated)
	require.Equal(t, 88, state.RemainingCap)
	require.Equal(t, 3, state.CurrentStreak)
	require.NotNil(t, state.LastRewardDate)
	require.Equal(t, "2026-03-14", *state.LastRewardDate)
}

func TestTools_ListAndClaimRewards(t *testing.T) {
	created := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	claimed := map[string]bool{}
	cs := connect(t, Services{Rewards: rewardStub{
		rewardsFn: func(_ context.Context, _ string, opts reward.ListOptions) ([]reward.Reward, error) {
			require.NotNil(t, opts.Claimed)
			require.False(t, *opts.Claimed)
			require.Equal(t, 10, opts.Limit)
			return []reward.Reward{{ID: "r1", Amount: 7, Reason: reward.CategorySpace, Timestamp: created}}, nil
		},
		claimFn: func(_ context.Context, _ string, rewardID string) (int, error) {
			if rewardID != "r1" {
				return 0, reward.ErrRewardNotFound
			}
			if claimed[rewardID] {
				return 0, reward.ErrAlreadyClaimed
			}
			claimed[rewardID] = true
			return 7, nil
		},
	}})

	list := callTool[ListRewardsResponse](t, cs, "list_rewards", map[string]any{"claimed": false, "limit": 10})
	require.Len(t, list.Rewards, 1)
	require.Equal(t, "space", list.Rewards[0].Reason)
	require.False(t, list.Rewards[0].Claimed)

	res := callTool[ClaimRewardResponse](t, cs, "claim_reward", map[string]any{"reward_id": "r1"})
	require.True(t, res.Success)
	require.Equal(t, 7, res.Amount)

	again := callToolRaw(t, cs, "claim_reward", map[string]any{"reward_id": "r1"})
	require.True(t, again.IsError)
	require.Contains(t, resultText(again), "ALREADY_CLAIMED")

	missing := callToolRaw(t, cs, "claim_reward", map[string]any{"reward_id": "nope"})
	require.True(t, missing.IsError)
	require.Contains(t, resultText(missing), "REWARD_NOT_FOUND")
}

func TestTools_SpacesAndActivity(t *testing.T) {
	trackingID := "trk-1"
	cs := connect(t, Services{
		Spaces: spaceStub{recentFn: func(_ context.Context, _ string, limit int) ([]submission.SpaceTracking, error) {
			require.Equal(t, 5, limit)
			return []submission.SpaceTracking{{ID: trackingID, SpaceID: "1mnxeNVXrYvKX", DurationMinutes: 2.5}}, nil
		}},
		Activity: activityStub{recentFn: func(_ context.Context, _ string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
			require.NotNil(t, opts.ActivityType)
			require.Equal(t, activity.TypeRewardDenied, *opts.ActivityType)
			return []activity.ActivityEntry{{
				ID: "a1", ActivityType: activity.TypeRewardDenied, Summary: "denied: gate", SpaceTrackingID: &trackingID,
			}}, nil
		}},
	})

	spaces := callTool[ListSpacesResponse](t, cs, "list_spaces", map[string]any{"limit": 5})
	require.Len(t, spaces.Spaces, 1)
	require.InDelta(t, 2.5, spaces.Spaces[0].DurationMinutes, 1e-9)

	entries := callTool[GetRecentActivityResponse](t, cs, "get_recent_activity", map[string]any{"type": "reward_denied"})
	require.Len(t, entries.Entries, 1)
	require.Equal(t, trackingID, entries.Entries[0].SpaceTrackingID)
}

func TestDocResources(t *testing.T) {
	cs := connect(t, Services{})

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "spacetracker://docs/rewards"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "Daily cap")
}
