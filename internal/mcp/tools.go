package mcp

import (
	"context"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
)

var errNoUser = errors.New("unauthorized: no user in context")

func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_reward_state",
		Description: "Get the caller's reward totals, today's earnings against the daily cap, and the current streak",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ GetRewardStateParams) (*sdkmcp.CallToolResult, RewardStateResponse, error) {
		userID := getUserID(ctx)
		if userID == "" {
			return nil, RewardStateResponse{}, errNoUser
		}
		view, err := svc.Rewards.State(ctx, userID)
		if err != nil {
			return nil, RewardStateResponse{}, MapError(err)
		}
		return nil, toRewardState(view), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_rewards",
		Description: "List the caller's rewards newest first, optionally only claimed or unclaimed ones",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListRewardsParams) (*sdkmcp.CallToolResult, ListRewardsResponse, error) {
		userID := getUserID(ctx)
		if userID == "" {
			return nil, ListRewardsResponse{}, errNoUser
		}
		if in.Limit < 0 || in.Offset < 0 {
			return nil, ListRewardsResponse{}, MapError(reward.ErrInvalidInput)
		}
		rewards, err := svc.Rewards.Rewards(ctx, userID, reward.ListOptions{
			Claimed: in.Claimed,
			Limit:   in.Limit,
			Offset:  in.Offset,
		})
		if err != nil {
			return nil, ListRewardsResponse{}, MapError(err)
		}
		resp := ListRewardsResponse{Rewards: make([]RewardResponse, 0, len(rewards))}
		for _, r := range rewards {
			resp.Rewards = append(resp.Rewards, toRewardResponse(r))
		}
		return nil, resp, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "claim_reward",
		Description: "Claim an unclaimed space reward; each reward can be claimed once",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ClaimRewardParams) (*sdkmcp.CallToolResult, ClaimRewardResponse, error) {
		userID := getUserID(ctx)
		if userID == "" {
			return nil, ClaimRewardResponse{}, errNoUser
		}
		amount, err := svc.Rewards.Claim(ctx, userID, in.RewardID)
		if err != nil {
			return nil, ClaimRewardResponse{}, MapError(err)
		}
		return nil, ClaimRewardResponse{Success: true, Amount: amount}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_spaces",
		Description: "List the caller's submitted space sessions newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListSpacesParams) (*sdkmcp.CallToolResult, ListSpacesResponse, error) {
		userID := getUserID(ctx)
		if userID == "" {
			return nil, ListSpacesResponse{}, errNoUser
		}
		spaces, err := svc.Spaces.Recent(ctx, userID, in.Limit)
		if err != nil {
			return nil, ListSpacesResponse{}, MapError(err)
		}
		resp := ListSpacesResponse{Spaces: make([]SpaceResponse, 0, len(spaces))}
		for _, s := range spaces {
			resp.Spaces = append(resp.Spaces, toSpaceResponse(s))
		}
		return nil, resp, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "Get recent submission and reward activity for the caller",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, GetRecentActivityResponse, error) {
		userID := getUserID(ctx)
		if userID == "" {
			return nil, GetRecentActivityResponse{}, errNoUser
		}
		opts := activity.ListActivityOptions{Limit: in.Limit}
		if in.Type != "" {
			typ := activity.ActivityType(in.Type)
			opts.ActivityType = &typ
		}
		entries, err := svc.Activity.GetRecentActivity(ctx, userID, opts)
		if err != nil {
			return nil, GetRecentActivityResponse{}, MapError(err)
		}
		resp := GetRecentActivityResponse{Entries: make([]ActivityResponse, 0, len(entries))}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, toActivityResponse(e))
		}
		return nil, resp, nil
	})
}
