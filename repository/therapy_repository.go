package repository

import (
	"context"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TherapyContentRepository handles the global therapyContent catalog.
// The catalog is reference data: reads everywhere, writes only from the
// admin surface.
type TherapyContentRepository struct {
	db *pgxpool.Pool
}

// NewTherapyContentRepository creates a new therapy content repository
func NewTherapyContentRepository(db *pgxpool.Pool) *TherapyContentRepository {
	return &TherapyContentRepository{db: db}
}

// List retrieves the whole catalog, newest first.
func (r *TherapyContentRepository) List(ctx context.Context) ([]models.TherapyContent, error) {
	query := `
		SELECT id, name, type, category, added, description
		FROM therapy_content
		ORDER BY added DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.TherapyContent
	for rows.Next() {
		var item models.TherapyContent
		err := rows.Scan(&item.ID, &item.Name, &item.Type, &item.Category, &item.Added, &item.Description)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Create adds a catalog entry.
func (r *TherapyContentRepository) Create(ctx context.Context, item *models.TherapyContent) error {
	query := `
		INSERT INTO therapy_content (name, type, category, added, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		item.Name,
		item.Type,
		item.Category,
		item.Added,
		item.Description,
	).Scan(&item.ID)
}

// TherapyModuleRepository handles the per-patient therapy_modules
// subcollection: mutable progress records, distinct from the catalog.
type TherapyModuleRepository struct {
	db *pgxpool.Pool
}

// NewTherapyModuleRepository creates a new therapy module repository
func NewTherapyModuleRepository(db *pgxpool.Pool) *TherapyModuleRepository {
	return &TherapyModuleRepository{db: db}
}

// ListByUser retrieves one patient's assigned modules.
func (r *TherapyModuleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.TherapyModule, error) {
	query := `
		SELECT id, user_id, content_id, name, progress, updated_at
		FROM therapy_modules
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []models.TherapyModule
	for rows.Next() {
		var m models.TherapyModule
		err := rows.Scan(&m.ID, &m.UserID, &m.ContentID, &m.Name, &m.Progress, &m.UpdatedAt)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// Assign creates a progress record against a catalog entry.
func (r *TherapyModuleRepository) Assign(ctx context.Context, module *models.TherapyModule) error {
	query := `
		INSERT INTO therapy_modules (user_id, content_id, name, progress)
		VALUES ($1, $2, $3, $4)
		RETURNING id, updated_at`

	return r.db.QueryRow(ctx, query,
		module.UserID,
		module.ContentID,
		module.Name,
		module.Progress,
	).Scan(&module.ID, &module.UpdatedAt)
}

// UpdateProgress advances a module's progress.
// UpdateProgress records module progress. Scoped to the owning patient.
func (r *TherapyModuleRepository) UpdateProgress(ctx context.Context, id, userID uuid.UUID, progress int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE therapy_modules SET progress = $2, updated_at = NOW()
		WHERE id = $1 AND user_id = $3`, id, progress, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
