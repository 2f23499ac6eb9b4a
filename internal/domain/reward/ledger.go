package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/domain/activity"
	"github.com/rpggio/spacetracker/internal/repository"
)

// Config configures a Ledger.
type Config struct {
	DailyCap   int
	Policy     Policy
	NewID      func() string
	Activities ActivityLogger
}

// Ledger grants and claims rewards. Every read-modify-write of a user's
// state runs under that user's lock.
type Ledger struct {
	store    Store
	clock    clock.Clock
	policy   Policy
	dailyCap int
	newID    func() string
	acts     ActivityLogger
	logger   *slog.Logger
	locks    *userLocks
}

// NewLedger creates a ledger. A nil policy selects the seeded gate.
func NewLedger(store Store, clk clock.Clock, cfg Config, logger *slog.Logger) *Ledger {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Policy == nil {
		cfg.Policy = NewSeededGate()
	}
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = DefaultDailyCap
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Ledger{
		store:    store,
		clock:    clk,
		policy:   cfg.Policy,
		dailyCap: cfg.DailyCap,
		newID:    cfg.NewID,
		acts:     cfg.Activities,
		logger:   logger,
		locks:    newUserLocks(),
	}
}

// DailyCap returns the cap assigned to new users.
func (l *Ledger) DailyCap() int {
	return l.dailyCap
}

// Grant decides whether to issue a reward and records it.
func (l *Ledger) Grant(ctx context.Context, req GrantRequest) (Grant, error) {
	if strings.TrimSpace(req.UserID) == "" || !req.Category.Valid() {
		return Grant{}, ErrInvalidInput
	}
	if !req.Eligible {
		return Grant{Denied: DenyNotEligible}, nil
	}

	unlock := l.locks.lock(req.UserID)
	defer unlock()

	now := l.clock.Now()
	today := DayOf(now)

	state, err := l.loadState(ctx, req.UserID, today)
	if err != nil {
		return Grant{}, err
	}

	earned := state.Earned(today)
	if earned >= state.DailyCap {
		return Grant{Denied: DenyDailyCap}, nil
	}
	if !l.policy.Admit(req.UserID, req.Category, today) {
		return Grant{Denied: DenyGate}, nil
	}

	amount, err := state.record(today, l.policy.Magnitude(req.UserID, req.Category, today, earned), now)
	if err != nil {
		return Grant{}, fmt.Errorf("recording reward: %w", err)
	}
	if amount == 0 {
		return Grant{Denied: DenyDailyCap}, nil
	}

	rew := &Reward{
		ID:        l.newID(),
		UserID:    req.UserID,
		Amount:    amount,
		Reason:    req.Category,
		Source:    req.Source,
		Timestamp: now,
		Claimed:   req.Category.AutoClaimed(),
	}
	if rew.Claimed {
		claimedAt := now
		rew.ClaimedAt = &claimedAt
	}

	if err := l.store.SaveGrant(ctx, state, today, rew); err != nil {
		return Grant{}, fmt.Errorf("saving grant: %w", err)
	}

	l.logger.Info("reward granted",
		"user_id", req.UserID,
		"category", req.Category,
		"amount", amount,
		"daily_earned", state.Earned(today),
		"streak", state.CurrentStreak,
	)
	return Grant{Granted: true, Amount: amount, Reward: rew}, nil
}

// Claim marks a reward claimed and returns its amount. Claiming a reward a
// second time fails with ErrAlreadyClaimed.
func (l *Ledger) Claim(ctx context.Context, userID, rewardID string) (int, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(rewardID) == "" {
		return 0, ErrInvalidInput
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	rew, err := l.store.GetReward(ctx, userID, rewardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrRewardNotFound
		}
		return 0, fmt.Errorf("loading reward: %w", err)
	}
	if rew.UserID != userID {
		return 0, ErrRewardNotFound
	}
	if rew.Claimed {
		return 0, ErrAlreadyClaimed
	}

	if err := l.store.MarkClaimed(ctx, userID, rewardID, l.clock.Now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return 0, ErrRewardNotFound
		case errors.Is(err, repository.ErrConflict):
			return 0, ErrAlreadyClaimed
		}
		return 0, fmt.Errorf("claiming reward: %w", err)
	}

	if l.acts != nil {
		id := rewardID
		_ = l.acts.LogActivity(ctx, userID, &activity.ActivityEntry{
			RewardID:     &id,
			ActivityType: activity.TypeRewardClaimed,
			Summary:      fmt.Sprintf("Claimed %d points", rew.Amount),
		})
	}
	l.logger.Info("reward claimed", "user_id", userID, "reward_id", rewardID, "amount", rew.Amount)
	return rew.Amount, nil
}

// State returns the user's reward summary for today. Unknown users get a
// zero state that is not persisted.
func (l *Ledger) State(ctx context.Context, userID string) (StateView, error) {
	if strings.TrimSpace(userID) == "" {
		return StateView{}, ErrInvalidInput
	}
	today := DayOf(l.clock.Now())
	state, err := l.loadState(ctx, userID, today)
	if err != nil {
		return StateView{}, err
	}
	return StateView{
		UserID:           userID,
		TotalAccumulated: state.TotalAccumulated,
		DailyEarned:      state.Earned(today),
		DailyCap:         state.DailyCap,
		RemainingCap:     state.Remaining(today),
		CurrentStreak:    state.CurrentStreak,
		LastRewardDate:   state.LastRewardDate,
	}, nil
}

// Rewards lists a user's rewards, newest first.
func (l *Ledger) Rewards(ctx context.Context, userID string, opts ListOptions) ([]Reward, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	rewards, err := l.store.ListRewards(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing rewards: %w", err)
	}
	return rewards, nil
}

func (l *Ledger) loadState(ctx context.Context, userID string, day Day) (*UserRewardState, error) {
	state, err := l.store.LoadState(ctx, userID, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewUserRewardState(userID, l.dailyCap, l.clock.Now()), nil
		}
		return nil, fmt.Errorf("loading reward state: %w", err)
	}
	if state.DailyCap <= 0 {
		state.DailyCap = l.dailyCap
	}
	if state.DailyEarned == nil {
		state.DailyEarned = make(map[Day]int)
	}
	return state, nil
}

// userLocks hands out one mutex per user and drops it once unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

func (u *userLocks) lock(userID string) func() {
	u.mu.Lock()
	l, ok := u.locks[userID]
	if !ok {
		l = &userLock{}
		u.locks[userID] = l
	}
	l.refs++
	u.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		u.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(u.locks, userID)
		}
		u.mu.Unlock()
	}
}
