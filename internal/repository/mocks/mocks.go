package mocks

import (
	"context"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/domain/submission"
	"github.com/stretchr/testify/mock"
)

// RewardStore is a mock for reward.Store.
type RewardStore struct {
	mock.Mock
}

func (m *RewardStore) LoadState(ctx context.Context, userID string, day reward.Day) (*reward.UserRewardState, error) {
	args := m.Called(ctx, userID, day)
	if state, ok := args.Get(0).(*reward.UserRewardState); ok {
		return state, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RewardStore) SaveGrant(ctx context.Context, state *reward.UserRewardState, day reward.Day, rew *reward.Reward) error {
	args := m.Called(ctx, state, day, rew)
	return args.Error(0)
}

func (m *RewardStore) GetReward(ctx context.Context, userID, rewardID string) (*reward.Reward, error) {
	args := m.Called(ctx, userID, rewardID)
	if rew, ok := args.Get(0).(*reward.Reward); ok {
		return rew, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RewardStore) MarkClaimed(ctx context.Context, userID, rewardID string, at time.Time) error {
	args := m.Called(ctx, userID, rewardID, at)
	return args.Error(0)
}

func (m *RewardStore) ListRewards(ctx context.Context, userID string, opts reward.ListOptions) ([]reward.Reward, error) {
	args := m.Called(ctx, userID, opts)
	if list, ok := args.Get(0).([]reward.Reward); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SpaceTrackingRepository is a mock for submission.Repository.
type SpaceTrackingRepository struct {
	mock.Mock
}

func (m *SpaceTrackingRepository) Create(ctx context.Context, tracking *submission.SpaceTracking) error {
	args := m.Called(ctx, tracking)
	return args.Error(0)
}

func (m *SpaceTrackingRepository) List(ctx context.Context, userID string, limit int) ([]submission.SpaceTracking, error) {
	args := m.Called(ctx, userID, limit)
	if list, ok := args.Get(0).([]submission.SpaceTracking); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Granter is a mock for submission.Granter.
type Granter struct {
	mock.Mock
}

func (m *Granter) Grant(ctx context.Context, req reward.GrantRequest) (reward.Grant, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(reward.Grant), args.Error(1)
}

// ActivityLogger is a mock for the activity logging dependency of services.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, userID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, userID, entry)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, userID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, userID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, userID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, userID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
