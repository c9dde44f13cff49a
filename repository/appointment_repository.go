package repository

import (
	"context"
	"fmt"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AppointmentRepository handles database operations for the appointments
// subcollection. Rows live under the patient's profile; doctor views are an
// explicit cross-parent query.
type AppointmentRepository struct {
	db *pgxpool.Pool
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, user_id, doctor_id, patient_id, date, purpose, status`

// Create inserts an appointment under the patient's profile.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	query := `
		INSERT INTO appointments (user_id, doctor_id, patient_id, date, purpose, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		appt.UserID,
		appt.DoctorID,
		appt.PatientID,
		appt.Date,
		appt.Purpose,
		appt.Status,
	).Scan(&appt.ID)
}

// ListByUser retrieves one patient's appointments, optionally filtered by
// status, soonest first.
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID, status *models.AppointmentStatus) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE user_id = $1`
	args := []interface{}{userID}
	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *status)
	}
	query += " ORDER BY date ASC"
	return r.list(ctx, query, args...)
}

// ListByDoctor retrieves every appointment assigned to a doctor across all
// patients, soonest first.
func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE doctor_id = $1 ORDER BY date ASC`
	return r.list(ctx, query, doctorID)
}

// NextScheduled retrieves the patient's next scheduled appointment, or
// ErrNotFound when none exists.
func (r *AppointmentRepository) NextScheduled(ctx context.Context, userID uuid.UUID) (*models.Appointment, error) {
	appt := &models.Appointment{}
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = $1 AND status = $2 AND date >= NOW()
		ORDER BY date ASC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, userID, models.AppointmentScheduled).Scan(
		&appt.ID, &appt.UserID, &appt.DoctorID, &appt.PatientID,
		&appt.Date, &appt.Purpose, &appt.Status,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return appt, nil
}

// UpdateStatus transitions an appointment's status.
// UpdateStatus changes an appointment's status. Only a party to the
// appointment can change it.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus, actorID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET status = $2
		WHERE id = $1 AND (patient_id = $3 OR doctor_id = $3)`, id, status, actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []models.Appointment
	for rows.Next() {
		var appt models.Appointment
		err := rows.Scan(&appt.ID, &appt.UserID, &appt.DoctorID, &appt.PatientID,
			&appt.Date, &appt.Purpose, &appt.Status)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}
