package repository

import (
	"context"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionLogRepository handles database operations for the sessionLogs
// subcollection.
type SessionLogRepository struct {
	db *pgxpool.Pool
}

// NewSessionLogRepository creates a new session log repository
func NewSessionLogRepository(db *pgxpool.Pool) *SessionLogRepository {
	return &SessionLogRepository{db: db}
}

// Create inserts a session log under its parent profile.
func (r *SessionLogRepository) Create(ctx context.Context, log *models.SessionLog) error {
	query := `
		INSERT INTO session_logs (user_id, type, date, duration, result)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		log.UserID,
		log.Type,
		log.Date,
		log.Duration,
		log.Result,
	).Scan(&log.ID)
}

// ListByUser retrieves one parent's session logs, newest first.
func (r *SessionLogRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SessionLog, error) {
	query := `
		SELECT id, user_id, type, date, duration, result
		FROM session_logs
		WHERE user_id = $1
		ORDER BY date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.SessionLog
	for rows.Next() {
		var log models.SessionLog
		if err := rows.Scan(&log.ID, &log.UserID, &log.Type, &log.Date, &log.Duration, &log.Result); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
