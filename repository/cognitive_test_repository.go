package repository

import (
	"context"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CognitiveTestRepository handles database operations for the
// cognitive_tests subcollection.
type CognitiveTestRepository struct {
	db *pgxpool.Pool
}

// NewCognitiveTestRepository creates a new cognitive test repository
func NewCognitiveTestRepository(db *pgxpool.Pool) *CognitiveTestRepository {
	return &CognitiveTestRepository{db: db}
}

// Create inserts a cognitive test result under its parent profile.
func (r *CognitiveTestRepository) Create(ctx context.Context, result *models.CognitiveTestResult) error {
	query := `
		INSERT INTO cognitive_tests (user_id, name, date, memory, focus, reaction_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		result.UserID,
		result.Name,
		result.Date,
		result.Memory,
		result.Focus,
		result.ReactionTime,
	).Scan(&result.ID)
}

// ListByUser retrieves one parent's test results, newest first.
func (r *CognitiveTestRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CognitiveTestResult, error) {
	query := `
		SELECT id, user_id, name, date, memory, focus, reaction_time
		FROM cognitive_tests
		WHERE user_id = $1
		ORDER BY date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.CognitiveTestResult
	for rows.Next() {
		var res models.CognitiveTestResult
		err := rows.Scan(&res.ID, &res.UserID, &res.Name, &res.Date,
			&res.Memory, &res.Focus, &res.ReactionTime)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
