package mcp

import (
	"time"

	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
)

type GetRewardStateParams struct{}

type ListRewardsParams struct {
	Claimed *bool `json:"claimed,omitempty" jsonschema:"Filter by claimed state; omit for all rewards"`
	Limit   int   `json:"limit,omitempty" jsonschema:"Maximum number of rewards"`
	Offset  int   `json:"offset,omitempty" jsonschema:"Offset for pagination"`
}

type ClaimRewardParams struct {
	RewardID string `json:"reward_id" jsonschema:"ID of an unclaimed space reward"`
}

type ListSpacesParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of submissions"`
}

type GetRecentActivityParams struct {
	Type  string `json:"type,omitempty" jsonschema:"Activity type filter: space_submitted, reward_granted, reward_denied or reward_claimed"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of activity entries"`
}

type RewardStateResponse struct {
	UserID           string  `json:"user_id"`
	TotalAccumulated int     `json:"total_accumulated"`
	DailyEarned      int     `json:"daily_earned"`
	DailyCap         int     `json:"daily_cap"`
	RemainingCap     int     `json:"remaining_cap"`
	CurrentStreak    int     `json:"current_streak"`
	LastRewardDate   *string `json:"last_reward_date,omitempty"`
}

type RewardResponse struct {
	ID        string `json:"id"`
	Amount    int    `json:"amount"`
	Reason    string `json:"reason"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp"`
	Claimed   bool   `json:"claimed"`
	ClaimedAt string `json:"claimed_at,omitempty"`
}

type ListRewardsResponse struct {
	Rewards []RewardResponse `json:"rewards"`
}

type ClaimRewardResponse struct {
	Success bool `json:"success"`
	Amount  int  `json:"amount"`
}

type SpaceResponse struct {
	ID              string  `json:"id"`
	SpaceID         string  `json:"space_id"`
	Title           string  `json:"title"`
	Host            string  `json:"host"`
	StartTime       string  `json:"start_time"`
	DurationMinutes float64 `json:"duration_minutes"`
	RewardGranted   bool    `json:"reward_granted"`
	RewardAmount    int     `json:"reward_amount,omitempty"`
}

type ListSpacesResponse struct {
	Spaces []SpaceResponse `json:"spaces"`
}

type ActivityResponse struct {
	ID              string `json:"id"`
	ActivityType    string `json:"activity_type"`
	Summary         string `json:"summary"`
	SpaceTrackingID string `json:"space_tracking_id,omitempty"`
	RewardID        string `json:"reward_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type GetRecentActivityResponse struct {
	Entries []ActivityResponse `json:"entries"`
}

func toRewardState(v reward.StateView) RewardStateResponse {
	resp := RewardStateResponse{
		UserID:           v.UserID,
		TotalAccumulated: v.TotalAccumulated,
		DailyEarned:      v.DailyEarned,
		DailyCap:         v.DailyCap,
		RemainingCap:     v.RemainingCap,
		CurrentStreak:    v.CurrentStreak,
	}
	if v.LastRewardDate != nil {
		d := string(*v.LastRewardDate)
		resp.LastRewardDate = &d
	}
	return resp
}

func toRewardResponse(r reward.Reward) RewardResponse {
	resp := RewardResponse{
		ID:        r.ID,
		Amount:    r.Amount,
		Reason:    string(r.Reason),
		Source:    r.Source,
		Timestamp: formatTime(r.Timestamp),
		Claimed:   r.Claimed,
	}
	if r.ClaimedAt != nil {
		resp.ClaimedAt = formatTime(*r.ClaimedAt)
	}
	return resp
}

func toSpaceResponse(t submission.SpaceTracking) SpaceResponse {
	return SpaceResponse{
		ID:              t.ID,
		SpaceID:         t.SpaceID,
		Title:           t.Title,
		Host:            t.Host,
		StartTime:       formatTime(t.StartTime),
		DurationMinutes: t.DurationMinutes,
		RewardGranted:   t.RewardGranted,
		RewardAmount:    t.RewardAmount,
	}
}

func toActivityResponse(e activity.ActivityEntry) ActivityResponse {
	return ActivityResponse{
		ID:              e.ID,
		ActivityType:    string(e.ActivityType),
		Summary:         e.Summary,
		SpaceTrackingID: stringValue(e.SpaceTrackingID),
		RewardID:        stringValue(e.RewardID),
		CreatedAt:       formatTime(e.CreatedAt),
	}
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
