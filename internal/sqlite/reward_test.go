package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/spacetracker/internal/clock"
	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/repository"
	"github.com/stretchr/testify/require"
)

var rewardDay = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func grantState(userID string, day reward.Day, earned int) *reward.UserRewardState {
	state := reward.NewUserRewardState(userID, 100, rewardDay)
	state.DailyEarned[day] = earned
	state.TotalAccumulated = earned
	state.CurrentStreak = 1
	state.LastRewardDate = &day
	return state
}

func TestRewardRepository_SaveAndLoad(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewRewardRepository(db)

	_, err := repo.LoadState(ctx, "u1", reward.DayOf(rewardDay))
	require.ErrorIs(t, err, repository.ErrNotFound)

	day := reward.DayOf(rewardDay)
	rew := &reward.Reward{ID: "r1", UserID: "u1", Amount: 7, Reason: reward.CategorySpace, Source: "trk-1", Timestamp: rewardDay}
	require.NoError(t, repo.SaveGrant(ctx, grantState("u1", day, 7), day, rew))

	state, err := repo.LoadState(ctx, "u1", day)
	require.NoError(t, err)
	require.Equal(t, 7, state.TotalAccumulated)
	require.Equal(t, 7, state.Earned(day))
	require.Equal(t, 100, state.DailyCap)
	require.Equal(t, 1, state.CurrentStreak)
	require.NotNil(t, state.LastRewardDate)
	require.Equal(t, day, *state.LastRewardDate)

	got, err := repo.GetReward(ctx, "u1", "r1")
	require.NoError(t, err)
	require.Equal(t, 7, got.Amount)
	require.Equal(t, reward.CategorySpace, got.Reason)
	require.Equal(t, "trk-1", got.Source)
	require.False(t, got.Claimed)
	require.True(t, got.Timestamp.Equal(rewardDay))
}

func TestRewardRepository_SaveGrantIsAtomic(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewRewardRepository(db)
	day := reward.DayOf(rewardDay)

	rew := &reward.Reward{ID: "r1", UserID: "u1", Amount: 3, Reason: reward.CategorySpace, Timestamp: rewardDay}
	require.NoError(t, repo.SaveGrant(ctx, grantState("u1", day, 3), day, rew))

	// Duplicate reward id must roll back the state update too.
	err := repo.SaveGrant(ctx, grantState("u1", day, 10), day, rew)
	require.ErrorIs(t, err, repository.ErrConflict)

	state, err := repo.LoadState(ctx, "u1", day)
	require.NoError(t, err)
	require.Equal(t, 3, state.Earned(day))
	require.Equal(t, 3, state.TotalAccumulated)
}

func TestRewardRepository_LoadStateReadsOnlyRequestedDay(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewRewardRepository(db)

	day1 := reward.DayOf(rewardDay)
	day2 := reward.DayOf(rewardDay.Add(24 * time.Hour))
	require.NoError(t, repo.SaveGrant(ctx, grantState("u1", day1, 7), day1,
		&reward.Reward{ID: "r1", UserID: "u1", Amount: 7, Reason: reward.CategorySpace, Timestamp: rewardDay}))
	require.NoError(t, repo.SaveGrant(ctx, grantState("u1", day2, 4), day2,
		&reward.Reward{ID: "r2", UserID: "u1", Amount: 4, Reason: reward.CategorySpace, Timestamp: rewardDay.Add(24 * time.Hour)}))

	state, err := repo.LoadState(ctx, "u1", day2)
	require.NoError(t, err)
	require.Equal(t, map[reward.Day]int{day2: 4}, state.DailyEarned)

	state, err = repo.LoadState(ctx, "u1", day1)
	require.NoError(t, err)
	require.Equal(t, map[reward.Day]int{day1: 7}, state.DailyEarned)

	state, err = repo.LoadState(ctx, "u1", reward.DayOf(rewardDay.Add(48*time.Hour)))
	require.NoError(t, err)
	require.Empty(t, state.DailyEarned)
}

func TestRewardRepository_ClaimOnce(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewRewardRepository(db)
	day := reward.DayOf(rewardDay)

	rew := &reward.Reward{ID: "r1", UserID: "u1", Amount: 4, Reason: reward.CategorySpace, Timestamp: rewardDay}
	require.NoError(t, repo.SaveGrant(ctx, grantState("u1", day, 4), day, rew))

	require.NoError(t, repo.MarkClaimed(ctx, "u1", "r1", rewardDay.Add(time.Minute)))
	require.ErrorIs(t, repo.MarkClaimed(ctx, "u1", "r1", rewardDay.Add(2*time.Minute)), repository.ErrConflict)
	require.ErrorIs(t, repo.MarkClaimed(ctx, "u2", "r1", rewardDay), repository.ErrNotFound)
	require.ErrorIs(t, repo.MarkClaimed(ctx, "u1", "missing", rewardDay), repository.ErrNotFound)

	got, err := repo.GetReward(ctx, "u1", "r1")
	require.NoError(t, err)
	require.True(t, got.Claimed)
	require.NotNil(t, got.ClaimedAt)
	require.True(t, got.ClaimedAt.Equal(rewardDay.Add(time.Minute)))

	_, err = repo.GetReward(ctx, "u2", "r1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRewardRepository_ListFilters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewRewardRepository(db)
	day := reward.DayOf(rewardDay)

	earned := 0
	for i, cat := range []reward.Category{reward.CategorySpace, reward.CategoryFeedback, reward.CategorySpace} {
		earned += 2
		ts := rewardDay.Add(time.Duration(i) * time.Minute)
		rew := &reward.Reward{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Amount:    2,
			Reason:    cat,
			Timestamp: ts,
			Claimed:   cat.AutoClaimed(),
		}
		if rew.Claimed {
			rew.ClaimedAt = &ts
		}
		require.NoError(t, repo.SaveGrant(ctx, grantState("u1", day, earned), day, rew))
	}

	all, err := repo.ListRewards(ctx, "u1", reward.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c", all[0].ID)
	require.Equal(t, "a", all[2].ID)

	unclaimed := false
	list, err := repo.ListRewards(ctx, "u1", reward.ListOptions{Claimed: &unclaimed})
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = repo.ListRewards(ctx, "u1", reward.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "b", list[0].ID)

	list, err = repo.ListRewards(ctx, "u2", reward.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, list)
}

// TestRewardRepository_LedgerCapUnderConcurrency drives the real ledger
// against SQLite from many goroutines.
func TestRewardRepository_LedgerCapUnderConcurrency(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	ledger := reward.NewLedger(NewRewardRepository(db), clock.NewFake(rewardDay), reward.Config{
		DailyCap: 50,
		Policy:   reward.Unconditional{Ranges: reward.DefaultRanges()},
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Grant(ctx, reward.GrantRequest{UserID: "u1", Category: reward.CategorySpace, Eligible: true})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	var sum int
	require.NoError(t, db.QueryRow(`SELECT COALESCE(SUM(amount), 0) FROM rewards WHERE user_id = 'u1'`).Scan(&sum))
	require.Equal(t, 50, sum)

	view, err := ledger.State(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 50, view.DailyEarned)
	require.Equal(t, 0, view.RemainingCap)
}
