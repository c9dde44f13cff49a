package repository

import (
	"context"
	"fmt"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AlertRepository handles the top-level alerts collection. Alerts are
// written by the anomaly ingest pipeline and read by doctor dashboards.
type AlertRepository struct {
	db *pgxpool.Pool
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts an alert.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (doctor_id, patient_id, patient_name, type, message, timestamp, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		alert.DoctorID,
		alert.PatientID,
		alert.PatientName,
		alert.Type,
		alert.Message,
		alert.Timestamp,
		alert.Status,
	).Scan(&alert.ID)
}

// ListByDoctor retrieves a doctor's alerts, newest first, optionally
// filtered by status.
func (r *AlertRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status *models.AlertStatus) ([]models.Alert, error) {
	query := `
		SELECT id, doctor_id, patient_id, patient_name, type, message, timestamp, status
		FROM alerts
		WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *status)
	}
	query += " ORDER BY timestamp DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.PatientName,
			&a.Type, &a.Message, &a.Timestamp, &a.Status)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkViewed transitions an alert to Viewed.
// MarkViewed flips an alert to Viewed. Scoped to the owning doctor so one
// doctor cannot dismiss another's alerts.
func (r *AlertRepository) MarkViewed(ctx context.Context, id, doctorID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE alerts SET status = $2 WHERE id = $1 AND doctor_id = $3`,
		id, models.AlertViewed, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
