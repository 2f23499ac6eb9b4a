package registry

import (
	"time"

	"github.com/rpggio/spacetracker/internal/domain/space"
	"github.com/rpggio/spacetracker/internal/domain/tracker"
)

// Persisted keys.
const (
	KeyActiveSession     = "active_session"
	KeyCompletedSessions = "completed_sessions"
	KeyRewardHistory     = "reward_history"
)

// RewardHistoryLimit is the number of reward outcomes retained.
const RewardHistoryLimit = 100

// Notification is delivered to listeners after each registry mutation.
type Notification struct {
	Type           tracker.EventType `json:"type"`
	Session        space.Session     `json:"session"`
	RewardEligible bool              `json:"rewardEligible"`
}

// RewardOutcome records what the backend answered for a submitted session.
type RewardOutcome struct {
	SessionID        string    `json:"sessionId"`
	SpaceTrackingID  string    `json:"spaceTrackingId,omitempty"`
	EligibleForGrant bool      `json:"eligibleForGrant"`
	Granted          bool      `json:"granted"`
	Amount           int       `json:"amount"`
	RewardID         string    `json:"rewardId,omitempty"`
	Error            string    `json:"error,omitempty"`
	RecordedAt       time.Time `json:"recordedAt"`
}

// Stats summarizes completed sessions.
type Stats struct {
	TotalSessions          int     `json:"totalSessions"`
	TotalDurationMinutes   float64 `json:"totalDurationMinutes"`
	AverageDurationMinutes float64 `json:"averageDurationMinutes"`
	EligibleSessions       int     `json:"eligibleSessions"`
}

// Snapshot is a read-only copy of registry state.
type Snapshot struct {
	Active    *space.Session  `json:"active,omitempty"`
	Completed []space.Session `json:"completed"`
	Rewards   []RewardOutcome `json:"rewards"`
	Stats     Stats           `json:"stats"`
}

func computeStats(completed []space.Session) Stats {
	var stats Stats
	stats.TotalSessions = len(completed)
	for _, s := range completed {
		stats.TotalDurationMinutes += s.DurationMinutes
		if s.RewardEligible {
			stats.EligibleSessions++
		}
	}
	if stats.TotalSessions > 0 {
		stats.AverageDurationMinutes = stats.TotalDurationMinutes / float64(stats.TotalSessions)
	}
	return stats
}
