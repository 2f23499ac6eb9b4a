package submission

import (
	"context"

	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
)

// Repository persists space tracking records.
type Repository interface {
	Create(ctx context.Context, tracking *SpaceTracking) error
	List(ctx context.Context, userID string, limit int) ([]SpaceTracking, error)
}

// Granter issues rewards for eligible submissions.
type Granter interface {
	Grant(ctx context.Context, req reward.GrantRequest) (reward.Grant, error)
}

// ActivityLogger records submission activity.
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID string, entry *activity.ActivityEntry) error
}
