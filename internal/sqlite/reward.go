package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/spacetracker/internal/domain/reward"
	"github.com/rpggio/spacetracker/internal/repository"
)

// RewardRepository implements reward.Store for SQLite
type RewardRepository struct {
	db *DB
}

// NewRewardRepository creates a new RewardRepository
func NewRewardRepository(db *DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// LoadState returns the stored state with the earnings of day.
func (r *RewardRepository) LoadState(ctx context.Context, userID string, day reward.Day) (*reward.UserRewardState, error) {
	var state reward.UserRewardState
	var lastDate sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, total_accumulated, last_reward_date, current_streak, daily_cap, created_at, updated_at
		FROM reward_states
		WHERE user_id = ?
	`, userID).Scan(
		&state.UserID,
		&state.TotalAccumulated,
		&lastDate,
		&state.CurrentStreak,
		&state.DailyCap,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward state: %w", err)
	}
	if lastDate.Valid {
		d := reward.Day(lastDate.String)
		state.LastRewardDate = &d
	}

	state.DailyEarned = make(map[reward.Day]int, 1)
	var earned int
	err = r.db.QueryRowContext(ctx, `
		SELECT earned FROM reward_daily WHERE user_id = ? AND day = ?
	`, userID, string(day)).Scan(&earned)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to get daily earnings: %w", err)
	default:
		state.DailyEarned[day] = earned
	}

	return &state, nil
}

// SaveGrant upserts the state and the day's total and inserts the reward in
// one transaction.
func (r *RewardRepository) SaveGrant(ctx context.Context, state *reward.UserRewardState, day reward.Day, rew *reward.Reward) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lastDate any
	if state.LastRewardDate != nil {
		lastDate = string(*state.LastRewardDate)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reward_states (user_id, total_accumulated, last_reward_date, current_streak, daily_cap, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			total_accumulated = excluded.total_accumulated,
			last_reward_date = excluded.last_reward_date,
			current_streak = excluded.current_streak,
			daily_cap = excluded.daily_cap,
			updated_at = excluded.updated_at
	`,
		state.UserID,
		state.TotalAccumulated,
		lastDate,
		state.CurrentStreak,
		state.DailyCap,
		state.CreatedAt.UTC(),
		state.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save reward state: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reward_daily (user_id, day, earned) VALUES (?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET earned = excluded.earned
	`, state.UserID, string(day), state.Earned(day))
	if err != nil {
		return fmt.Errorf("failed to save daily earnings: %w", err)
	}

	var claimedAt any
	if rew.ClaimedAt != nil {
		claimedAt = rew.ClaimedAt.UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO rewards (id, user_id, amount, reason, source, created_at, claimed, claimed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rew.ID,
		rew.UserID,
		rew.Amount,
		string(rew.Reason),
		rew.Source,
		rew.Timestamp.UTC(),
		boolToInt(rew.Claimed),
		claimedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return fmt.Errorf("%w: reward %s exists", repository.ErrConflict, rew.ID)
		case isForeignKeyViolation(err):
			return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
		}
		return fmt.Errorf("failed to insert reward: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit grant: %w", err)
	}
	return nil
}

// GetReward returns a reward owned by userID.
func (r *RewardRepository) GetReward(ctx context.Context, userID, rewardID string) (*reward.Reward, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, reason, source, created_at, claimed, claimed_at
		FROM rewards
		WHERE id = ? AND user_id = ?
	`, rewardID, userID)

	rew, err := scanReward(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return rew, nil
}

// MarkClaimed flips claimed once. It returns repository.ErrConflict when the
// reward was already claimed.
func (r *RewardRepository) MarkClaimed(ctx context.Context, userID, rewardID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE rewards SET claimed = 1, claimed_at = ?
		WHERE id = ? AND user_id = ? AND claimed = 0
	`, at.UTC(), rewardID, userID)
	if err != nil {
		return fmt.Errorf("failed to claim reward: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check claim result: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rewards WHERE id = ? AND user_id = ?`, rewardID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check reward: %w", err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// ListRewards returns rewards newest first.
func (r *RewardRepository) ListRewards(ctx context.Context, userID string, opts reward.ListOptions) ([]reward.Reward, error) {
	query := `
		SELECT id, user_id, amount, reason, source, created_at, claimed, claimed_at
		FROM rewards
		WHERE user_id = ?
	`
	args := []interface{}{userID}

	if opts.Claimed != nil {
		query += " AND claimed = ?"
		args = append(args, boolToInt(*opts.Claimed))
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []reward.Reward
	for rows.Next() {
		rew, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, *rew)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reward rows: %w", err)
	}

	return rewards, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReward(row rowScanner) (*reward.Reward, error) {
	var rew reward.Reward
	var reason string
	var source sql.NullString
	var claimed int
	var claimedAt sql.NullTime
	if err := row.Scan(
		&rew.ID,
		&rew.UserID,
		&rew.Amount,
		&reason,
		&source,
		&rew.Timestamp,
		&claimed,
		&claimedAt,
	); err != nil {
		return nil, err
	}
	rew.Reason = reward.Category(reason)
	rew.Source = source.String
	rew.Claimed = claimed != 0
	if claimedAt.Valid {
		t := claimedAt.Time
		rew.ClaimedAt = &t
	}
	return &rew, nil
}
