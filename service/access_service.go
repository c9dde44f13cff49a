package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"neurocore-backend/models"
)

// ErrAccessDenied means the viewer is not permitted to read the patient's
// data. The denial itself is recorded as a violation in the patient's
// access log.
var ErrAccessDenied = errors.New("viewer is not authorized for this patient")

// AccessLogWriter records access decisions.
type AccessLogWriter interface {
	Create(ctx context.Context, log *models.AccessLog) error
}

// ProfileGetter loads one profile by id.
type ProfileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.UserProfile, error)
}

// AccessService decides whether a viewer may read a patient's data and
// records every decision. Patients always see their own data, admins see
// everything, and doctors need an explicit grant in the patient's privacy
// settings.
type AccessService struct {
	profiles ProfileGetter
	logs     AccessLogWriter
	logger   zerolog.Logger
}

// AccessServiceOption is a functional option for AccessService
type AccessServiceOption func(*AccessService)

// AccessWithProfiles sets the profile lookup
func AccessWithProfiles(profiles ProfileGetter) AccessServiceOption {
	return func(s *AccessService) {
		s.profiles = profiles
	}
}

// AccessWithLogs sets the access log writer
func AccessWithLogs(logs AccessLogWriter) AccessServiceOption {
	return func(s *AccessService) {
		s.logs = logs
	}
}

// AccessWithLogger sets the logger
func AccessWithLogger(logger zerolog.Logger) AccessServiceOption {
	return func(s *AccessService) {
		s.logger = logger
	}
}

// NewAccessService creates a new access service
func NewAccessService(opts ...AccessServiceOption) *AccessService {
	s := &AccessService{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize checks whether viewer may read patientID's data and records the
// decision under the patient's access log. action names what was viewed,
// e.g. "Viewed Session Logs". Denied doctor access is still recorded, as a
// violation.
func (s *AccessService) Authorize(ctx context.Context, viewer models.UserProfile, patientID uuid.UUID, action string) error {
	// Self-access and admin access are always authorized and not logged;
	// the log tracks external viewers only.
	if viewer.ID() == patientID || viewer.Role() == models.RoleAdmin {
		return nil
	}
	if viewer.Role() != models.RoleDoctor {
		return ErrAccessDenied
	}

	patient, err := s.profiles.GetByID(ctx, patientID)
	if err != nil {
		return fmt.Errorf("failed to load patient: %w", err)
	}
	p, ok := models.AsPatient(patient)
	if !ok {
		return ErrAccessDenied
	}

	status := models.AccessViolation
	if p.PrivacySettings.DoctorAccess[viewer.ID().String()] {
		status = models.AccessAuthorized
	}

	entry := &models.AccessLog{
		UserID: patientID,
		Viewer: viewer.DisplayName(),
		Date:   time.Now(),
		Action: action,
		Status: status,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		// The decision still stands when the audit write fails; losing
		// an audit row must not turn into a data outage.
		s.logger.Error().Err(err).Str("patient_id", patientID.String()).Msg("failed to record access log")
	}

	if status == models.AccessViolation {
		s.logger.Warn().
			Str("patient_id", patientID.String()).
			Str("viewer", viewer.DisplayName()).
			Msg("doctor access denied by privacy settings")
		return ErrAccessDenied
	}
	return nil
}
