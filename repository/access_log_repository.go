package repository

import (
	"context"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// accessLogDateIndex backs the collection-group query across all parents.
const accessLogDateIndex = "idx_access_logs_date"

// AccessLogRepository handles database operations for the accessLogs
// subcollection.
type AccessLogRepository struct {
	db *pgxpool.Pool
}

// NewAccessLogRepository creates a new access log repository
func NewAccessLogRepository(db *pgxpool.Pool) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

// Create inserts an access log under its parent profile.
func (r *AccessLogRepository) Create(ctx context.Context, log *models.AccessLog) error {
	query := `
		INSERT INTO access_logs (user_id, viewer, date, action, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		log.UserID,
		log.Viewer,
		log.Date,
		log.Action,
		log.Status,
	).Scan(&log.ID)
}

// ListByUser retrieves one parent's access logs, newest first.
func (r *AccessLogRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AccessLog, error) {
	query := `
		SELECT id, user_id, viewer, date, action, status
		FROM access_logs
		WHERE user_id = $1
		ORDER BY date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccessLogs(rows)
}

// ListAcrossUsers is the collection-group query: every parent's access logs
// in one pass, newest first, bounded by limit. It refuses to run without its
// composite index and returns IndexMissingError so callers can surface the
// remedy instead of a generic failure.
func (r *AccessLogRepository) ListAcrossUsers(ctx context.Context, limit int) ([]models.AccessLog, error) {
	if err := requireIndex(ctx, r.db, "accessLogs", accessLogDateIndex); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, viewer, date, action, status
		FROM access_logs
		ORDER BY date DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccessLogs(rows)
}

type accessLogRows interface {
	Next() bool
	Scan(...interface{}) error
	Err() error
}

func scanAccessLogs(rows accessLogRows) ([]models.AccessLog, error) {
	var logs []models.AccessLog
	for rows.Next() {
		var log models.AccessLog
		if err := rows.Scan(&log.ID, &log.UserID, &log.Viewer, &log.Date, &log.Action, &log.Status); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
