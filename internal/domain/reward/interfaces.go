package reward

import (
	"context"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/activity"
)

// Store persists reward state. LoadState and GetReward return
// repository.ErrNotFound when nothing is stored.
type Store interface {
	// LoadState returns the state with DailyEarned holding only day.
	LoadState(ctx context.Context, userID string, day Day) (*UserRewardState, error)
	// SaveGrant writes the updated state and the new reward atomically.
	SaveGrant(ctx context.Context, state *UserRewardState, day Day, rew *Reward) error
	GetReward(ctx context.Context, userID, rewardID string) (*Reward, error)
	MarkClaimed(ctx context.Context, userID, rewardID string, at time.Time) error
	ListRewards(ctx context.Context, userID string, opts ListOptions) ([]Reward, error)
}

// Policy decides whether a grant passes the gate and how large it is.
type Policy interface {
	Admit(userID string, category Category, day Day) bool
	Magnitude(userID string, category Category, day Day, earned int) int
}

// ActivityLogger records claim activity.
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID string, entry *activity.ActivityEntry) error
}
