package repository

import (
	"context"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MoodTrackerRepository handles database operations for the moodTracker
// subcollection: one row per tracked day, keyed (user, day name).
type MoodTrackerRepository struct {
	db *pgxpool.Pool
}

// NewMoodTrackerRepository creates a new mood tracker repository
func NewMoodTrackerRepository(db *pgxpool.Pool) *MoodTrackerRepository {
	return &MoodTrackerRepository{db: db}
}

// ListByUser retrieves a patient's mood tracker series in insertion order.
func (r *MoodTrackerRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MoodPoint, error) {
	query := `
		SELECT name, mood, stress
		FROM mood_tracker
		WHERE user_id = $1
		ORDER BY position ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.MoodPoint
	for rows.Next() {
		var p models.MoodPoint
		if err := rows.Scan(&p.Name, &p.Mood, &p.Stress); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Replace swaps a patient's whole series. Writes are per-row, not atomic;
// a failure mid-way leaves a partial series, which readers tolerate.
func (r *MoodTrackerRepository) Replace(ctx context.Context, userID uuid.UUID, points []models.MoodPoint) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM mood_tracker WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for i, p := range points {
		_, err := r.db.Exec(ctx, `
			INSERT INTO mood_tracker (user_id, position, name, mood, stress)
			VALUES ($1, $2, $3, $4, $5)`,
			userID, i, p.Name, p.Mood, p.Stress)
		if err != nil {
			return err
		}
	}
	return nil
}

// Upsert records today's sample, overwriting an existing row for the same
// day name.
func (r *MoodTrackerRepository) Upsert(ctx context.Context, userID uuid.UUID, point models.MoodPoint) error {
	var position int
	err := r.db.QueryRow(ctx,
		`SELECT position FROM mood_tracker WHERE user_id = $1 AND name = $2`,
		userID, point.Name).Scan(&position)
	if err == pgx.ErrNoRows {
		_, err = r.db.Exec(ctx, `
			INSERT INTO mood_tracker (user_id, position, name, mood, stress)
			VALUES ($1, COALESCE((SELECT MAX(position)+1 FROM mood_tracker WHERE user_id = $1), 0), $2, $3, $4)`,
			userID, point.Name, point.Mood, point.Stress)
		return err
	}
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		UPDATE mood_tracker SET mood = $3, stress = $4
		WHERE user_id = $1 AND name = $2`,
		userID, point.Name, point.Mood, point.Stress)
	return err
}
