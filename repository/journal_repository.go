package repository

import (
	"context"
	"fmt"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JournalRepository handles database operations for the journalEntries
// subcollection.
type JournalRepository struct {
	db *pgxpool.Pool
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create inserts a journal entry under its parent profile.
func (r *JournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (user_id, text, timestamp)
		VALUES ($1, $2, $3)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		entry.UserID,
		entry.Text,
		entry.Timestamp,
	).Scan(&entry.ID)
}

// ListByUser retrieves one parent's journal entries, newest first, bounded
// by limit when positive.
func (r *JournalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.JournalEntry, error) {
	query := `
		SELECT id, user_id, text, timestamp
		FROM journal_entries
		WHERE user_id = $1
		ORDER BY timestamp DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var entry models.JournalEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Text, &entry.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Latest retrieves the most recent entry, or ErrNotFound.
func (r *JournalRepository) Latest(ctx context.Context, userID uuid.UUID) (*models.JournalEntry, error) {
	entry := &models.JournalEntry{}
	query := `
		SELECT id, user_id, text, timestamp
		FROM journal_entries
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, userID).Scan(&entry.ID, &entry.UserID, &entry.Text, &entry.Timestamp)
	if err != nil {
		return nil, notFound(err)
	}
	return entry, nil
}
