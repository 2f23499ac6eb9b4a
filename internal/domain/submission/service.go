package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/space"
)

// Options configures a Service.
type Options struct {
	MinDurationMinutes float64
	NewID              func() string
}

// Service accepts completed space sessions and routes eligible ones to the
// reward ledger.
type Service struct {
	repo        Repository
	ledger      Granter
	activities  ActivityLogger
	clock       clock.Clock
	minDuration float64
	newID       func() string
	logger      *slog.Logger
}

// NewService creates a new submission service.
func NewService(repo Repository, ledger Granter, activities ActivityLogger, clk clock.Clock, opts Options, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.MinDurationMinutes <= 0 {
		opts.MinDurationMinutes = space.DefaultMinDurationMinutes
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Service{
		repo:        repo,
		ledger:      ledger,
		activities:  activities,
		clock:       clk,
		minDuration: opts.MinDurationMinutes,
		newID:       opts.NewID,
		logger:      logger,
	}
}

// MinDurationMinutes returns the eligibility threshold.
func (s *Service) MinDurationMinutes() float64 {
	return s.minDuration
}

// Submit validates and stores a space submission, granting a reward when
// the duration meets the threshold. The tracking row is written before the
// grant so a failed write never spends the daily cap.
func (s *Service) Submit(ctx context.Context, userID string, req Request) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, ErrInvalidInput
	}
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	tracking := &SpaceTracking{
		ID:               s.newID(),
		UserID:           userID,
		SpaceID:          strings.TrimSpace(req.SpaceID),
		Title:            req.Title,
		Host:             req.Host,
		StartTime:        req.StartTime.UTC(),
		EndTime:          req.EndTime.UTC(),
		DurationMinutes:  *req.Duration,
		EligibleForGrant: space.Eligible(*req.Duration, s.minDuration),
		CreatedAt:        s.clock.Now(),
	}

	if err := s.repo.Create(ctx, tracking); err != nil {
		return Result{}, fmt.Errorf("creating space tracking: %w", err)
	}

	var grant reward.Grant
	if tracking.EligibleForGrant {
		var err error
		grant, err = s.ledger.Grant(ctx, reward.GrantRequest{
			UserID:   userID,
			Category: reward.CategorySpace,
			Eligible: true,
			Source:   tracking.ID,
		})
		if err != nil {
			return Result{}, fmt.Errorf("granting reward for %s: %w", tracking.ID, err)
		}
	}
	tracking.RewardGranted = grant.Granted
	tracking.RewardAmount = grant.Amount
	if grant.Reward != nil {
		tracking.RewardID = grant.Reward.ID
	}

	s.logActivities(ctx, tracking, grant)
	s.logger.Info("space submitted",
		"user_id", userID,
		"space_tracking_id", tracking.ID,
		"duration_minutes", tracking.DurationMinutes,
		"eligible", tracking.EligibleForGrant,
		"granted", tracking.RewardGranted,
	)

	return Result{
		Success:          true,
		SpaceTrackingID:  tracking.ID,
		EligibleForGrant: tracking.EligibleForGrant,
		RewardGranted:    tracking.RewardGranted,
		RewardAmount:     tracking.RewardAmount,
		RewardID:         tracking.RewardID,
	}, nil
}

// Recent lists the user's latest submissions.
func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]SpaceTracking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = space.HistoryLimit
	}
	return s.repo.List(ctx, userID, limit)
}

func (s *Service) logActivities(ctx context.Context, tracking *SpaceTracking, grant reward.Grant) {
	if s.activities == nil {
		return
	}
	trackingID := tracking.ID

	details, _ := json.Marshal(map[string]any{
		"spaceId":         tracking.SpaceID,
		"durationMinutes": tracking.DurationMinutes,
		"eligible":        tracking.EligibleForGrant,
	})
	_ = s.activities.LogActivity(ctx, tracking.UserID, &activity.ActivityEntry{
		SpaceTrackingID: &trackingID,
		ActivityType:    activity.TypeSpaceSubmitted,
		Summary:         fmt.Sprintf("Submitted %q (%.1f min)", tracking.Title, tracking.DurationMinutes),
		Details:         string(details),
	})

	if !tracking.EligibleForGrant {
		return
	}
	if grant.Granted {
		rewardID := tracking.RewardID
		_ = s.activities.LogActivity(ctx, tracking.UserID, &activity.ActivityEntry{
			SpaceTrackingID: &trackingID,
			RewardID:        &rewardID,
			ActivityType:    activity.TypeRewardGranted,
			Summary:         fmt.Sprintf("Granted %d points", grant.Amount),
		})
		return
	}
	_ = s.activities.LogActivity(ctx, tracking.UserID, &activity.ActivityEntry{
		SpaceTrackingID: &trackingID,
		ActivityType:    activity.TypeRewardDenied,
		Summary:         fmt.Sprintf("No reward (%s)", grant.Denied),
	})
}
