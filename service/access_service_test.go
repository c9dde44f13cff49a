package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocore-backend/models"
	"neurocore-backend/repository"
)

type fakeProfileGetter struct {
	profiles map[uuid.UUID]models.UserProfile
}

func (g *fakeProfileGetter) GetByID(ctx context.Context, id uuid.UUID) (models.UserProfile, error) {
	p, ok := g.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type recordingLogWriter struct {
	logs []models.AccessLog
}

func (w *recordingLogWriter) Create(ctx context.Context, log *models.AccessLog) error {
	w.logs = append(w.logs, *log)
	return nil
}

func accessFixture(t *testing.T, grant bool) (*AccessService, *models.DoctorProfile, *models.PatientProfile, *recordingLogWriter) {
	t.Helper()

	doctor := &models.DoctorProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Mail: "doctor@neurocore.dev", Name: "Dr. Anya Sharma"},
	}
	patient := &models.PatientProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Mail: "patient@neurocore.dev", Name: "John Doe"},
		PrivacySettings: models.PrivacySettings{
			DoctorAccess: map[string]bool{doctor.UID.String(): grant},
		},
	}

	logs := &recordingLogWriter{}
	svc := NewAccessService(
		AccessWithProfiles(&fakeProfileGetter{profiles: map[uuid.UUID]models.UserProfile{
			doctor.UID:  doctor,
			patient.UID: patient,
		}}),
		AccessWithLogs(logs),
	)
	return svc, doctor, patient, logs
}

func TestAuthorizeGrantedDoctor(t *testing.T) {
	svc, doctor, patient, logs := accessFixture(t, true)

	err := svc.Authorize(context.Background(), doctor, patient.UID, "Viewed Session Logs")
	require.NoError(t, err)

	require.Len(t, logs.logs, 1)
	entry := logs.logs[0]
	assert.Equal(t, patient.UID, entry.UserID)
	assert.Equal(t, "Dr. Anya Sharma", entry.Viewer)
	assert.Equal(t, "Viewed Session Logs", entry.Action)
	assert.Equal(t, models.AccessAuthorized, entry.Status)
}

func TestAuthorizeDeniedDoctorLogsViolation(t *testing.T) {
	svc, doctor, patient, logs := accessFixture(t, false)

	err := svc.Authorize(context.Background(), doctor, patient.UID, "Viewed Patient Record")
	assert.ErrorIs(t, err, ErrAccessDenied)

	// The denial itself is recorded.
	require.Len(t, logs.logs, 1)
	assert.Equal(t, models.AccessViolation, logs.logs[0].Status)
}

func TestAuthorizeUnassignedDoctorLogsViolation(t *testing.T) {
	svc, _, patient, logs := accessFixture(t, true)

	stranger := &models.DoctorProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Mail: "other@neurocore.dev", Name: "Dr. Kenji Tanaka"},
	}
	err := svc.Authorize(context.Background(), stranger, patient.UID, "Viewed Session Logs")
	assert.ErrorIs(t, err, ErrAccessDenied)
	require.Len(t, logs.logs, 1)
	assert.Equal(t, models.AccessViolation, logs.logs[0].Status)
	assert.Equal(t, "Dr. Kenji Tanaka", logs.logs[0].Viewer)
}

func TestAuthorizeSelfAndAdminSkipLog(t *testing.T) {
	svc, _, patient, logs := accessFixture(t, false)

	require.NoError(t, svc.Authorize(context.Background(), patient, patient.UID, "Viewed Dashboard"))

	admin := &models.AdminProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Mail: "admin@neurocore.dev", Name: "Sys Admin"},
	}
	require.NoError(t, svc.Authorize(context.Background(), admin, patient.UID, "Viewed User"))

	assert.Empty(t, logs.logs)
}

func TestAuthorizePatientCannotViewOthers(t *testing.T) {
	svc, _, patient, logs := accessFixture(t, true)

	other := &models.PatientProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Mail: "patient2@neurocore.dev", Name: "Jane Smith"},
	}
	err := svc.Authorize(context.Background(), other, patient.UID, "Viewed Session Logs")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, logs.logs)
}
