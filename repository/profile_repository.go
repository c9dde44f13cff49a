package repository

import (
	"context"
	"fmt"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles database operations for user profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// profileRow mirrors the users table; scanRow rehydrates the role variant.
type profileRow struct {
	base        models.BaseProfile
	role        models.Role
	specialty   *string
	patients    []uuid.UUID
	patientData *models.PatientData
	privacy     *models.PrivacySettings
	passwdHash  string
}

const profileColumns = `id, email, display_name, role, specialty, patients,
		patient_data, privacy_settings, password_hash, created_at, updated_at`

func (r *ProfileRepository) scanRow(row interface{ Scan(...interface{}) error }) (models.UserProfile, string, error) {
	var p profileRow
	err := row.Scan(
		&p.base.UID,
		&p.base.Mail,
		&p.base.Name,
		&p.role,
		&p.specialty,
		&p.patients,
		&p.patientData,
		&p.privacy,
		&p.passwdHash,
		&p.base.CreatedAt,
		&p.base.UpdatedAt,
	)
	if err != nil {
		return nil, "", notFound(err)
	}

	switch p.role {
	case models.RolePatient:
		pp := &models.PatientProfile{BaseProfile: p.base}
		if p.patientData != nil {
			pp.PatientData = *p.patientData
		}
		if p.privacy != nil {
			pp.PrivacySettings = *p.privacy
		} else {
			pp.PrivacySettings = models.DefaultPrivacySettings()
		}
		return pp, p.passwdHash, nil
	case models.RoleDoctor:
		return &models.DoctorProfile{
			BaseProfile: p.base,
			Specialty:   p.specialty,
			Patients:    p.patients,
		}, p.passwdHash, nil
	case models.RoleAdmin:
		return &models.AdminProfile{BaseProfile: p.base}, p.passwdHash, nil
	default:
		return nil, "", fmt.Errorf("unknown role %q for profile %s", p.role, p.base.UID)
	}
}

// Create inserts a profile with its role payload and credential hash.
func (r *ProfileRepository) Create(ctx context.Context, profile models.UserProfile, passwordHash string) error {
	query := `
		INSERT INTO users (
			id, email, display_name, role, specialty, patients,
			patient_data, privacy_settings, password_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var specialty *string
	var patients []uuid.UUID
	var patientData *models.PatientData
	var privacy *models.PrivacySettings

	switch p := profile.(type) {
	case *models.PatientProfile:
		patientData = &p.PatientData
		privacy = &p.PrivacySettings
	case *models.DoctorProfile:
		specialty = p.Specialty
		patients = p.Patients
	}

	_, err := r.db.Exec(ctx, query,
		profile.ID(),
		profile.Email(),
		profile.DisplayName(),
		profile.Role(),
		specialty,
		patients,
		patientData,
		privacy,
		passwordHash,
	)
	return err
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`
	profile, _, err := r.scanRow(r.db.QueryRow(ctx, query, id))
	return profile, err
}

// GetByEmail retrieves a profile and its password hash by email, for sign-in.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (models.UserProfile, string, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE email = $1`
	return r.scanRow(r.db.QueryRow(ctx, query, email))
}

// List retrieves all profiles, newest first.
func (r *ProfileRepository) List(ctx context.Context) ([]models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users ORDER BY created_at DESC`
	return r.list(ctx, query)
}

// ListByRole retrieves all profiles with the given role.
func (r *ProfileRepository) ListByRole(ctx context.Context, role models.Role) ([]models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, role)
}

func (r *ProfileRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.UserProfile, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		profile, _, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

// ListIDsByRole resolves the parent-id set for a role filter.
func (r *ProfileRepository) ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE role = $1`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DisplayNameMap returns an id→displayName map for every profile, so
// aggregating views can join names without duplicate profile reads.
func (r *ProfileRepository) DisplayNameMap(ctx context.Context) (map[uuid.UUID]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id, display_name FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// UpdatePatientData replaces the patient snapshot on a patient document.
func (r *ProfileRepository) UpdatePatientData(ctx context.Context, id uuid.UUID, data models.PatientData) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET patient_data = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'patient'`, id, data)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePrivacySettings replaces the privacy settings on a patient document.
// Last write wins; there are no merge semantics at the store level.
func (r *ProfileRepository) UpdatePrivacySettings(ctx context.Context, id uuid.UUID, settings models.PrivacySettings) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET privacy_settings = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'patient'`, id, settings)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignPatient adds a patient to a doctor's roster and grants the doctor
// access in the patient's privacy settings. This is the only path that
// inserts new doctorAccess keys.
func (r *ProfileRepository) AssignPatient(ctx context.Context, doctorID, patientID uuid.UUID) error {
	// The roster update is idempotent, so its row count cannot distinguish
	// "already assigned" from "no such doctor". Check the doctor row first
	// to avoid writing a grant key for a doctor that does not exist.
	var doctorExists bool
	if err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND role = 'doctor')`,
		doctorID).Scan(&doctorExists); err != nil {
		return err
	}
	if !doctorExists {
		return ErrNotFound
	}

	_, err := r.db.Exec(ctx, `
		UPDATE users SET patients = array_append(patients, $2), updated_at = NOW()
		WHERE id = $1 AND role = 'doctor' AND NOT ($2 = ANY(COALESCE(patients, '{}')))`,
		doctorID, patientID)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			privacy_settings = jsonb_set(
				COALESCE(privacy_settings, '{}'::jsonb),
				ARRAY['doctorAccess', $2::text],
				'true'::jsonb),
			updated_at = NOW()
		WHERE id = $1 AND role = 'patient'`, patientID, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
