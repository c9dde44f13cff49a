package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocore-backend/models"
	"neurocore-backend/repository"
)

type fakePrivacyStore struct {
	profiles  map[uuid.UUID]models.UserProfile
	failWrite bool
	written   *models.PrivacySettings
}

func (s *fakePrivacyStore) GetByID(ctx context.Context, id uuid.UUID) (models.UserProfile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *fakePrivacyStore) UpdatePrivacySettings(ctx context.Context, id uuid.UUID, settings models.PrivacySettings) error {
	if s.failWrite {
		return errors.New("write refused")
	}
	clone := settings.Clone()
	s.written = &clone
	if patient, ok := models.AsPatient(s.profiles[id]); ok {
		patient.PrivacySettings = settings.Clone()
	}
	return nil
}

func newTestPatient(doctorID string) *models.PatientProfile {
	return &models.PatientProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Mail: "patient@neurocore.dev", Name: "John Doe"},
		PrivacySettings: models.PrivacySettings{
			LiveTherapyMode:    false,
			AnonymizedResearch: false,
			DoctorAccess:       map[string]bool{doctorID: true},
		},
	}
}

func TestSetSettingConfirmed(t *testing.T) {
	patient := newTestPatient("d1")
	store := &fakePrivacyStore{profiles: map[uuid.UUID]models.UserProfile{patient.UID: patient}}
	svc := NewPrivacyService(PrivacyWithStore(store))

	state, err := svc.SetSetting(context.Background(), patient.UID, SettingLiveTherapyMode, true)
	require.NoError(t, err)
	assert.Equal(t, ToggleConfirmed, state)
	require.NotNil(t, store.written)
	assert.True(t, store.written.LiveTherapyMode)

	settings, err := svc.GetSettings(context.Background(), patient.UID)
	require.NoError(t, err)
	assert.True(t, settings.LiveTherapyMode)
}

func TestSetSettingRollsBackOnFailure(t *testing.T) {
	patient := newTestPatient("d1")
	store := &fakePrivacyStore{profiles: map[uuid.UUID]models.UserProfile{patient.UID: patient}}
	svc := NewPrivacyService(PrivacyWithStore(store))

	// Prime the local view, then make every write fail.
	_, err := svc.GetSettings(context.Background(), patient.UID)
	require.NoError(t, err)
	store.failWrite = true

	state, err := svc.SetSetting(context.Background(), patient.UID, SettingLiveTherapyMode, true)
	require.Error(t, err)
	assert.Equal(t, ToggleRolledBack, state)

	// The local view equals the pre-call value after the operation settles.
	settings, err := svc.GetSettings(context.Background(), patient.UID)
	require.NoError(t, err)
	assert.False(t, settings.LiveTherapyMode)
}

func TestDoctorAccessToggleRoundTrip(t *testing.T) {
	patient := newTestPatient("d1")
	store := &fakePrivacyStore{profiles: map[uuid.UUID]models.UserProfile{patient.UID: patient}}
	svc := NewPrivacyService(PrivacyWithStore(store))

	state, err := svc.SetSetting(context.Background(), patient.UID, "doctorAccess.d1", false)
	require.NoError(t, err)
	assert.Equal(t, ToggleConfirmed, state)

	// A fresh service reads back what was persisted.
	fresh := NewPrivacyService(PrivacyWithStore(store))
	settings, err := fresh.GetSettings(context.Background(), patient.UID)
	require.NoError(t, err)
	assert.False(t, settings.DoctorAccess["d1"])
}

func TestSetSettingRejectsUnassignedDoctor(t *testing.T) {
	patient := newTestPatient("d1")
	store := &fakePrivacyStore{profiles: map[uuid.UUID]models.UserProfile{patient.UID: patient}}
	svc := NewPrivacyService(PrivacyWithStore(store))

	_, err := svc.SetSetting(context.Background(), patient.UID, "doctorAccess.d2", true)
	assert.ErrorIs(t, err, ErrDoctorNotAssigned)
}

func TestSetSettingRejectsUnknownKey(t *testing.T) {
	patient := newTestPatient("d1")
	store := &fakePrivacyStore{profiles: map[uuid.UUID]models.UserProfile{patient.UID: patient}}
	svc := NewPrivacyService(PrivacyWithStore(store))

	_, err := svc.SetSetting(context.Background(), patient.UID, "telemetry", true)
	assert.ErrorIs(t, err, ErrUnknownSetting)
}

func TestGetSettingsRejectsNonPatient(t *testing.T) {
	doctor := &models.DoctorProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Mail: "doctor@neurocore.dev", Name: "Dr. Anya Sharma"},
	}
	store := &fakePrivacyStore{profiles: map[uuid.UUID]models.UserProfile{doctor.UID: doctor}}
	svc := NewPrivacyService(PrivacyWithStore(store))

	_, err := svc.GetSettings(context.Background(), doctor.UID)
	assert.ErrorIs(t, err, ErrNotPatient)
}

func TestGetSettingsHandsOutCopies(t *testing.T) {
	patient := newTestPatient("d1")
	store := &fakePrivacyStore{profiles: map[uuid.UUID]models.UserProfile{patient.UID: patient}}
	svc := NewPrivacyService(PrivacyWithStore(store))

	first, err := svc.GetSettings(context.Background(), patient.UID)
	require.NoError(t, err)
	first.DoctorAccess["d1"] = false

	second, err := svc.GetSettings(context.Background(), patient.UID)
	require.NoError(t, err)
	assert.True(t, second.DoctorAccess["d1"])
}
