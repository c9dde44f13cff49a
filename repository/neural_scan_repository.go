package repository

import (
	"context"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NeuralScanRepository handles database operations for the neural_scans
// subcollection.
type NeuralScanRepository struct {
	db *pgxpool.Pool
}

// NewNeuralScanRepository creates a new neural scan repository
func NewNeuralScanRepository(db *pgxpool.Pool) *NeuralScanRepository {
	return &NeuralScanRepository{db: db}
}

const neuralScanColumns = `id, user_id, type, date, findings, doctor_notes, media_path`

// Create inserts a neural scan under its parent profile.
func (r *NeuralScanRepository) Create(ctx context.Context, scan *models.NeuralScan) error {
	query := `
		INSERT INTO neural_scans (user_id, type, date, findings, doctor_notes, media_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		scan.UserID,
		scan.Type,
		scan.Date,
		scan.Findings,
		scan.DoctorNotes,
		scan.MediaPath,
	).Scan(&scan.ID)
}

// GetByID retrieves a scan by ID.
func (r *NeuralScanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.NeuralScan, error) {
	scan := &models.NeuralScan{}
	query := `SELECT ` + neuralScanColumns + ` FROM neural_scans WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&scan.ID, &scan.UserID, &scan.Type, &scan.Date,
		&scan.Findings, &scan.DoctorNotes, &scan.MediaPath,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return scan, nil
}

// ListByUser retrieves one parent's scans, newest first.
func (r *NeuralScanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.NeuralScan, error) {
	query := `SELECT ` + neuralScanColumns + ` FROM neural_scans WHERE user_id = $1 ORDER BY date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []models.NeuralScan
	for rows.Next() {
		var scan models.NeuralScan
		err := rows.Scan(&scan.ID, &scan.UserID, &scan.Type, &scan.Date,
			&scan.Findings, &scan.DoctorNotes, &scan.MediaPath)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, rows.Err()
}

// Latest retrieves the most recent scan for a parent, or ErrNotFound.
func (r *NeuralScanRepository) Latest(ctx context.Context, userID uuid.UUID) (*models.NeuralScan, error) {
	scan := &models.NeuralScan{}
	query := `SELECT ` + neuralScanColumns + ` FROM neural_scans WHERE user_id = $1 ORDER BY date DESC LIMIT 1`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&scan.ID, &scan.UserID, &scan.Type, &scan.Date,
		&scan.Findings, &scan.DoctorNotes, &scan.MediaPath,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return scan, nil
}

// UpdateNotes replaces the doctor's notes on a scan.
func (r *NeuralScanRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	tag, err := r.db.Exec(ctx, `UPDATE neural_scans SET doctor_notes = $2 WHERE id = $1`, id, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
