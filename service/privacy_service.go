package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"neurocore-backend/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotPatient     = errors.New("profile is not a patient")
	ErrUnknownSetting = errors.New("unknown privacy setting")
	// ErrDoctorNotAssigned: doctorAccess keys are only inserted by the
	// admin assignment flow; the settings API toggles existing keys.
	ErrDoctorNotAssigned = errors.New("doctor is not assigned to this patient")
)

// Privacy setting keys. Doctor access entries use "doctorAccess.<doctorId>".
const (
	SettingLiveTherapyMode    = "liveTherapyMode"
	SettingAnonymizedResearch = "anonymizedResearch"
	settingDoctorAccessPrefix = "doctorAccess."
)

// ToggleState is the lifecycle of one optimistic mutation:
// Applied -> Confirmed | RolledBack, driven by the remote write's outcome.
type ToggleState string

const (
	ToggleApplied    ToggleState = "applied"
	ToggleConfirmed  ToggleState = "confirmed"
	ToggleRolledBack ToggleState = "rolled_back"
)

// PrivacyStore is the store boundary the privacy controller writes through.
type PrivacyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.UserProfile, error)
	UpdatePrivacySettings(ctx context.Context, id uuid.UUID, settings models.PrivacySettings) error
}

// PrivacyService gates and records mutation of a patient's sharing
// preferences. It keeps an in-memory view per patient, mutated optimistically
// ahead of the remote write and reverted (then reconciled to remote truth)
// when the write fails.
type PrivacyService struct {
	store  PrivacyStore
	logger zerolog.Logger

	mu    sync.Mutex
	views map[uuid.UUID]models.PrivacySettings
}

// PrivacyServiceOption is a functional option for PrivacyService
type PrivacyServiceOption func(*PrivacyService)

// PrivacyWithStore sets the backing store
func PrivacyWithStore(store PrivacyStore) PrivacyServiceOption {
	return func(s *PrivacyService) {
		s.store = store
	}
}

// PrivacyWithLogger sets the logger
func PrivacyWithLogger(logger zerolog.Logger) PrivacyServiceOption {
	return func(s *PrivacyService) {
		s.logger = logger
	}
}

// NewPrivacyService creates a new privacy service
func NewPrivacyService(opts ...PrivacyServiceOption) *PrivacyService {
	s := &PrivacyService{
		logger: zerolog.Nop(),
		views:  make(map[uuid.UUID]models.PrivacySettings),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetSettings returns a patient's privacy settings. Fails with
// repository.ErrNotFound (propagated from the store) when the profile does
// not exist, and ErrNotPatient when it is not a patient.
func (s *PrivacyService) GetSettings(ctx context.Context, patientID uuid.UUID) (models.PrivacySettings, error) {
	s.mu.Lock()
	if view, ok := s.views[patientID]; ok {
		defer s.mu.Unlock()
		return view.Clone(), nil
	}
	s.mu.Unlock()

	return s.loadRemote(ctx, patientID)
}

// loadRemote fetches the remote truth and installs it as the local view.
func (s *PrivacyService) loadRemote(ctx context.Context, patientID uuid.UUID) (models.PrivacySettings, error) {
	profile, err := s.store.GetByID(ctx, patientID)
	if err != nil {
		return models.PrivacySettings{}, err
	}
	patient, ok := models.AsPatient(profile)
	if !ok {
		return models.PrivacySettings{}, ErrNotPatient
	}

	s.mu.Lock()
	s.views[patientID] = patient.PrivacySettings.Clone()
	s.mu.Unlock()
	return patient.PrivacySettings.Clone(), nil
}

// SetSetting applies a toggle optimistically, persists it, and rolls the
// local view back on failure. Returns the final state of the mutation.
// Same-key races resolve last-write-wins at the store; a losing writer's
// view reconciles to the remote truth rather than staying wrong.
func (s *PrivacyService) SetSetting(ctx context.Context, patientID uuid.UUID, key string, value bool) (ToggleState, error) {
	current, err := s.GetSettings(ctx, patientID)
	if err != nil {
		return "", err
	}

	updated := current.Clone()
	if err := applySetting(&updated, key, value); err != nil {
		return "", err
	}

	// Optimistic: the local view changes before the store confirms.
	s.mu.Lock()
	previous := s.views[patientID]
	s.views[patientID] = updated.Clone()
	s.mu.Unlock()

	if err := s.store.UpdatePrivacySettings(ctx, patientID, updated); err != nil {
		s.logger.Warn().Err(err).Stringer("patient_id", patientID).Str("key", key).
			Msg("privacy toggle failed, rolling back local view")

		s.mu.Lock()
		s.views[patientID] = previous
		s.mu.Unlock()

		// Best-effort reconcile to remote truth; the rollback above
		// already restored the last known-good value if this fails too.
		if _, rerr := s.loadRemote(ctx, patientID); rerr != nil {
			s.logger.Warn().Err(rerr).Stringer("patient_id", patientID).
				Msg("could not reconcile privacy view after failed toggle")
		}
		return ToggleRolledBack, err
	}

	return ToggleConfirmed, nil
}

// applySetting mutates one named setting. doctorAccess keys must already
// exist: insertion belongs to the admin assignment flow, not this API.
func applySetting(settings *models.PrivacySettings, key string, value bool) error {
	switch key {
	case SettingLiveTherapyMode:
		settings.LiveTherapyMode = value
		return nil
	case SettingAnonymizedResearch:
		settings.AnonymizedResearch = value
		return nil
	}
	if doctorID, ok := strings.CutPrefix(key, settingDoctorAccessPrefix); ok {
		if _, exists := settings.DoctorAccess[doctorID]; !exists {
			return ErrDoctorNotAssigned
		}
		settings.DoctorAccess[doctorID] = value
		return nil
	}
	return ErrUnknownSetting
}

// Invalidate drops the cached view so the next read hits the store. Used
// after out-of-band writes such as doctor assignment.
func (s *PrivacyService) Invalidate(patientID uuid.UUID) {
	s.mu.Lock()
	delete(s.views, patientID)
	s.mu.Unlock()
}
