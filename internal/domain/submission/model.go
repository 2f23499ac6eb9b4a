package submission

import (
	"fmt"
	"strings"
	"time"
)

// Request is the body of a space submission.
type Request struct {
	SpaceID   string     `json:"spaceId"`
	Title     string     `json:"title"`
	Host      string     `json:"host"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	// Duration is in minutes.
	Duration *float64 `json:"duration"`
	// RewardAmount is accepted for compatibility and ignored; the ledger
	// decides the amount.
	RewardAmount *int `json:"rewardAmount,omitempty"`
}

// Validate checks required fields and time ordering.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.SpaceID) == "" {
		missing = append(missing, "spaceId")
	}
	if r.StartTime == nil {
		missing = append(missing, "startTime")
	}
	if r.EndTime == nil {
		missing = append(missing, "endTime")
	}
	if r.Duration == nil {
		missing = append(missing, "duration")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if r.EndTime.Before(*r.StartTime) {
		return fmt.Errorf("%w: endTime before startTime", ErrInvalidInput)
	}
	if *r.Duration < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidInput)
	}
	return nil
}

// SpaceTracking is a stored space submission.
type SpaceTracking struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	SpaceID          string    `json:"spaceId"`
	Title            string    `json:"title"`
	Host             string    `json:"host"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	DurationMinutes  float64   `json:"durationMinutes"`
	EligibleForGrant bool      `json:"eligibleForGrant"`
	RewardGranted    bool      `json:"rewardGranted"`
	RewardAmount     int       `json:"rewardAmount"`
	RewardID         string    `json:"rewardId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Result is the response to a space submission.
type Result struct {
	Success          bool   `json:"success"`
	SpaceTrackingID  string `json:"spaceTrackingId"`
	EligibleForGrant bool   `json:"eligibleForGrant"`
	RewardGranted    bool   `json:"rewardGranted"`
	RewardAmount     int    `json:"rewardAmount"`
	RewardID         string `json:"rewardId,omitempty"`
}
