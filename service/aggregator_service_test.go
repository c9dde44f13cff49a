package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocore-backend/models"
)

type fakeDirectory struct {
	ids   []uuid.UUID
	names map[uuid.UUID]string
}

func (d *fakeDirectory) ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error) {
	return d.ids, nil
}

func (d *fakeDirectory) DisplayNameMap(ctx context.Context) (map[uuid.UUID]string, error) {
	return d.names, nil
}

func sessionLog(userID uuid.UUID, typ string, date time.Time) models.SessionLog {
	return models.SessionLog{ID: uuid.New(), UserID: userID, Type: typ, Date: date, Duration: "30min"}
}

func TestAggregateAcrossPatients(t *testing.T) {
	john := uuid.New()
	jane := uuid.New()
	dir := &fakeDirectory{
		ids:   []uuid.UUID{john, jane},
		names: map[uuid.UUID]string{john: "John Doe", jane: "Jane Smith"},
	}
	agg := NewAggregator(dir, zerolog.Nop())

	base := time.Date(2023, 10, 26, 14, 30, 0, 0, time.UTC)
	logs := map[uuid.UUID][]models.SessionLog{
		john: {
			sessionLog(john, "Focus Gym", base),
			sessionLog(john, "Calm Room", base.Add(-24*time.Hour)),
		},
		jane: {
			sessionLog(jane, "Dream Sim", base.Add(-2*time.Hour)),
		},
	}

	result, err := Aggregate(
		context.Background(),
		agg,
		ParentFilter{Role: models.RolePatient},
		func(ctx context.Context, pid uuid.UUID) ([]models.SessionLog, error) {
			return logs[pid], nil
		},
		func(l models.SessionLog) time.Time { return l.Date },
	)
	require.NoError(t, err)
	require.Len(t, result.Records, 3)
	assert.Empty(t, result.Warnings)

	var johnCount, janeCount int
	for _, rec := range result.Records {
		switch rec.ParentDisplayName {
		case "John Doe":
			johnCount++
		case "Jane Smith":
			janeCount++
		default:
			t.Fatalf("unexpected parent display name %q", rec.ParentDisplayName)
		}
	}
	assert.Equal(t, 2, johnCount)
	assert.Equal(t, 1, janeCount)

	// Newest first.
	assert.Equal(t, "Focus Gym", result.Records[0].Record.Type)
	assert.Equal(t, "Dream Sim", result.Records[1].Record.Type)
	assert.Equal(t, "Calm Room", result.Records[2].Record.Type)
}

func TestAggregateEmptySubcollection(t *testing.T) {
	patient := uuid.New()
	dir := &fakeDirectory{
		ids:   []uuid.UUID{patient},
		names: map[uuid.UUID]string{patient: "John Doe"},
	}
	agg := NewAggregator(dir, zerolog.Nop())

	result, err := Aggregate(
		context.Background(),
		agg,
		ParentFilter{ParentID: &patient},
		func(ctx context.Context, pid uuid.UUID) ([]models.SessionLog, error) {
			return nil, nil
		},
		func(l models.SessionLog) time.Time { return l.Date },
	)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, result.Warnings)
}

func TestAggregatePartialFailure(t *testing.T) {
	ok := uuid.New()
	broken := uuid.New()
	dir := &fakeDirectory{
		ids:   []uuid.UUID{ok, broken},
		names: map[uuid.UUID]string{ok: "John Doe", broken: "Jane Smith"},
	}
	agg := NewAggregator(dir, zerolog.Nop())

	result, err := Aggregate(
		context.Background(),
		agg,
		ParentFilter{Role: models.RolePatient},
		func(ctx context.Context, pid uuid.UUID) ([]models.SessionLog, error) {
			if pid == broken {
				return nil, errors.New("connection reset")
			}
			return []models.SessionLog{sessionLog(pid, "Focus Gym", time.Now())}, nil
		},
		func(l models.SessionLog) time.Time { return l.Date },
	)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "John Doe", result.Records[0].ParentDisplayName)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, broken, result.Warnings[0].ParentID)
}

func TestAggregateDeletedParentName(t *testing.T) {
	ghost := uuid.New()
	dir := &fakeDirectory{
		ids:   []uuid.UUID{ghost},
		names: map[uuid.UUID]string{}, // parent profile deleted
	}
	agg := NewAggregator(dir, zerolog.Nop())

	result, err := Aggregate(
		context.Background(),
		agg,
		ParentFilter{Role: models.RolePatient},
		func(ctx context.Context, pid uuid.UUID) ([]models.SessionLog, error) {
			return []models.SessionLog{sessionLog(pid, "Calm Room", time.Now())}, nil
		},
		func(l models.SessionLog) time.Time { return l.Date },
	)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "Unknown", result.Records[0].ParentDisplayName)
}

func TestEnrichedMarshalFlattens(t *testing.T) {
	userID := uuid.New()
	rec := Enriched[models.SessionLog]{
		Record:            sessionLog(userID, "Focus Gym", time.Date(2023, 10, 26, 14, 30, 0, 0, time.UTC)),
		ParentDisplayName: "John Doe",
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "John Doe", m["parentDisplayName"])
	assert.Equal(t, "Focus Gym", m["type"])
}

func TestEnrichWithNames(t *testing.T) {
	known := uuid.New()
	unknown := uuid.New()
	logs := []models.AccessLog{
		{ID: uuid.New(), UserID: known, Viewer: "AI System", Status: models.AccessAuthorized},
		{ID: uuid.New(), UserID: unknown, Viewer: "Dr. Kenji Tanaka", Status: models.AccessAuthorized},
	}

	enriched := EnrichWithNames(logs, func(l models.AccessLog) uuid.UUID { return l.UserID }, map[uuid.UUID]string{known: "John Doe"})
	require.Len(t, enriched, 2)
	assert.Equal(t, "John Doe", enriched[0].ParentDisplayName)
	assert.Equal(t, "Unknown", enriched[1].ParentDisplayName)
}
