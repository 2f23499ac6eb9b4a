package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeSpaceSubmitted ActivityType = "space_submitted"
	TypeRewardGranted  ActivityType = "reward_granted"
	TypeRewardDenied   ActivityType = "reward_denied"
	TypeRewardClaimed  ActivityType = "reward_claimed"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case TypeSpaceSubmitted, TypeRewardGranted, TypeRewardDenied, TypeRewardClaimed:
		return true
	}
	return false
}

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID              int64        `json:"id"`
	UserID          string       `json:"userId"`
	SpaceTrackingID *string      `json:"spaceTrackingId,omitempty"`
	RewardID        *string      `json:"rewardId,omitempty"`
	ActivityType    ActivityType `json:"type"`
	Summary         string       `json:"summary"`
	Details         string       `json:"details,omitempty"` // JSON string
	CreatedAt       time.Time    `json:"createdAt"`
}
