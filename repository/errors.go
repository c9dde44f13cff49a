package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound means the referenced profile or record does not exist.
	// Callers surface it as an empty state, not a fatal error.
	ErrNotFound = errors.New("not found")
)

// IndexMissingError means a collection-group query lacks its supporting
// composite index. It is a distinct, user-actionable failure: the remedy is
// to create the named index, and callers must not collapse it into a generic
// I/O error.
type IndexMissingError struct {
	Index      string
	Collection string
}

func (e *IndexMissingError) Error() string {
	return fmt.Sprintf("collection-group query on %q requires index %q; create it with cmd/create-schema", e.Collection, e.Index)
}

// IsIndexMissing reports whether err is an IndexMissingError.
func IsIndexMissing(err error) bool {
	var im *IndexMissingError
	return errors.As(err, &im)
}

// requireIndex verifies the named index backs a collection-group query.
// Fan-in queries scan every parent's records at once and are unbounded
// without their composite index, so the absence is refused up front.
func requireIndex(ctx context.Context, db *pgxpool.Pool, collection, index string) error {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = $1)`, index,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return &IndexMissingError{Index: index, Collection: collection}
	}
	return nil
}

// notFound maps pgx's no-rows sentinel to the repository taxonomy.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
