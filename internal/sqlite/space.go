package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/spacetracker/internal/domain/submission"
	"github.com/rpggio/spacetracker/internal/repository"
)

// SpaceTrackingRepository implements submission.Repository for SQLite
type SpaceTrackingRepository struct {
	db *DB
}

// NewSpaceTrackingRepository creates a new SpaceTrackingRepository
func NewSpaceTrackingRepository(db *DB) *SpaceTrackingRepository {
	return &SpaceTrackingRepository{db: db}
}

// Create inserts a submitted space session. Grant fields are not stored;
// List reads them from the space reward sourced from the tracking id.
func (r *SpaceTrackingRepository) Create(ctx context.Context, tracking *submission.SpaceTracking) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO space_trackings (
			id, user_id, space_id, title, host, start_time, end_time,
			duration_minutes, eligible, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tracking.ID,
		tracking.UserID,
		tracking.SpaceID,
		tracking.Title,
		tracking.Host,
		tracking.StartTime.UTC(),
		tracking.EndTime.UTC(),
		tracking.DurationMinutes,
		boolToInt(tracking.EligibleForGrant),
		tracking.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: space tracking %s exists", repository.ErrConflict, tracking.ID)
		}
		return fmt.Errorf("failed to create space tracking: %w", err)
	}
	return nil
}

// List returns the user's submissions, newest first
func (r *SpaceTrackingRepository) List(ctx context.Context, userID string, limit int) ([]submission.SpaceTracking, error) {
	query := `
		SELECT st.id, st.user_id, st.space_id, st.title, st.host, st.start_time, st.end_time,
			st.duration_minutes, st.eligible, rw.id, rw.amount, st.created_at
		FROM space_trackings st
		LEFT JOIN rewards rw
			ON rw.source = st.id AND rw.user_id = st.user_id AND rw.reason = 'space'
		WHERE st.user_id = ?
		ORDER BY st.created_at DESC, st.rowid DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list space trackings: %w", err)
	}
	defer rows.Close()

	var list []submission.SpaceTracking
	for rows.Next() {
		var tr submission.SpaceTracking
		var eligible int
		var rewardID sql.NullString
		var rewardAmount sql.NullInt64
		if err := rows.Scan(
			&tr.ID,
			&tr.UserID,
			&tr.SpaceID,
			&tr.Title,
			&tr.Host,
			&tr.StartTime,
			&tr.EndTime,
			&tr.DurationMinutes,
			&eligible,
			&rewardID,
			&rewardAmount,
			&tr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan space tracking: %w", err)
		}
		tr.EligibleForGrant = eligible != 0
		tr.RewardGranted = rewardID.Valid
		tr.RewardID = rewardID.String
		tr.RewardAmount = int(rewardAmount.Int64)
		list = append(list, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating space tracking rows: %w", err)
	}

	return list, nil
}
