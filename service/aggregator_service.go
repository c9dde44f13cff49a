package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// unknownDisplayName is attached when a record's parent profile no longer
// exists (deleted user); the record still renders instead of failing the
// batch.
const unknownDisplayName = "Unknown"

// ProfileDirectory resolves parent ids and display names for aggregation.
type ProfileDirectory interface {
	ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error)
	DisplayNameMap(ctx context.Context) (map[uuid.UUID]string, error)
}

// Enriched is a subcollection record joined with its parent's display name.
type Enriched[T any] struct {
	Record            T
	ParentDisplayName string
}

// MarshalJSON flattens the record's fields and adds parentDisplayName, so
// the wire shape is {...subcollectionFields, parentDisplayName}.
func (e Enriched[T]) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(e.Record)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["parentDisplayName"] = e.ParentDisplayName
	return json.Marshal(fields)
}

// ParentWarning reports one parent whose subcollection fetch failed while
// the rest of the aggregation proceeded.
type ParentWarning struct {
	ParentID uuid.UUID `json:"parentId"`
	Message  string    `json:"message"`
}

// AggregateResult carries the enriched records plus per-parent warnings.
// Partial results are preferable to total failure: a failed parent
// contributes a warning, never an abort.
type AggregateResult[T any] struct {
	Records  []Enriched[T]   `json:"records"`
	Warnings []ParentWarning `json:"warnings,omitempty"`
}

// ParentFilter selects the parent set: a single parent id, or every profile
// matching a role.
type ParentFilter struct {
	ParentID *uuid.UUID
	Role     models.Role
}

// FetchFunc fetches one parent's subcollection.
type FetchFunc[T any] func(ctx context.Context, parentID uuid.UUID) ([]T, error)

// TimestampFunc extracts the sort key from a record.
type TimestampFunc[T any] func(T) time.Time

// Aggregator is the shared fetch-then-join utility behind every aggregating
// view. The store has no cross-parent join, so the aggregator resolves the
// parent set, fans out per-parent subcollection fetches concurrently, and
// attaches each parent's display name from one prefetched map.
type Aggregator struct {
	profiles ProfileDirectory
	logger   zerolog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(profiles ProfileDirectory, logger zerolog.Logger) *Aggregator {
	return &Aggregator{profiles: profiles, logger: logger}
}

// resolveParents expands a filter into concrete parent ids.
func (a *Aggregator) resolveParents(ctx context.Context, filter ParentFilter) ([]uuid.UUID, error) {
	if filter.ParentID != nil {
		return []uuid.UUID{*filter.ParentID}, nil
	}
	return a.profiles.ListIDsByRole(ctx, filter.Role)
}

// Aggregate fans out across the filtered parents, joins display names onto
// every record, and sorts by timestamp descending. One parent's failure is
// downgraded to a warning; a parent with zero documents contributes zero
// records, not an error.
func Aggregate[T any](
	ctx context.Context,
	a *Aggregator,
	filter ParentFilter,
	fetch FetchFunc[T],
	timestamp TimestampFunc[T],
) (*AggregateResult[T], error) {
	parents, err := a.resolveParents(ctx, filter)
	if err != nil {
		return nil, err
	}

	names, err := a.profiles.DisplayNameMap(ctx)
	if err != nil {
		return nil, err
	}

	type parentOutcome struct {
		parentID uuid.UUID
		records  []T
		err      error
	}

	outcomes := make([]parentOutcome, len(parents))
	var wg sync.WaitGroup
	for i, pid := range parents {
		wg.Add(1)
		go func(i int, pid uuid.UUID) {
			defer wg.Done()
			records, err := fetch(ctx, pid)
			outcomes[i] = parentOutcome{parentID: pid, records: records, err: err}
		}(i, pid)
	}
	wg.Wait()

	result := &AggregateResult[T]{}
	for _, out := range outcomes {
		if out.err != nil {
			a.logger.Warn().Err(out.err).Stringer("parent_id", out.parentID).
				Msg("subcollection fetch failed, continuing with partial results")
			result.Warnings = append(result.Warnings, ParentWarning{
				ParentID: out.parentID,
				Message:  out.err.Error(),
			})
			continue
		}
		name, ok := names[out.parentID]
		if !ok {
			name = unknownDisplayName
		}
		for _, rec := range out.records {
			result.Records = append(result.Records, Enriched[T]{
				Record:            rec,
				ParentDisplayName: name,
			})
		}
	}

	if timestamp != nil {
		sort.SliceStable(result.Records, func(i, j int) bool {
			return timestamp(result.Records[i].Record).After(timestamp(result.Records[j].Record))
		})
	}

	return result, nil
}

// EnrichWithNames joins display names onto records that already arrived via
// a collection-group query (the fan-in path skips the per-parent fan-out but
// still needs the name join).
func EnrichWithNames[T any](records []T, parentID func(T) uuid.UUID, names map[uuid.UUID]string) []Enriched[T] {
	enriched := make([]Enriched[T], 0, len(records))
	for _, rec := range records {
		name, ok := names[parentID(rec)]
		if !ok {
			name = unknownDisplayName
		}
		enriched = append(enriched, Enriched[T]{Record: rec, ParentDisplayName: name})
	}
	return enriched
}
