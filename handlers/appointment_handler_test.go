package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocore-backend/models"
	"neurocore-backend/repository"
)

type fakeAppointmentStore struct {
	appts map[uuid.UUID]*models.Appointment
}

func (s *fakeAppointmentStore) Create(ctx context.Context, appt *models.Appointment) error {
	s.appts[appt.ID] = appt
	return nil
}

func (s *fakeAppointmentStore) ListByUser(ctx context.Context, userID uuid.UUID, status *models.AppointmentStatus) ([]models.Appointment, error) {
	return nil, nil
}

func (s *fakeAppointmentStore) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]models.Appointment, error) {
	return nil, nil
}

func (s *fakeAppointmentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus, actorID uuid.UUID) error {
	appt, ok := s.appts[id]
	if !ok || (appt.PatientID != actorID && appt.DoctorID != actorID) {
		return repository.ErrNotFound
	}
	appt.Status = status
	return nil
}

func appointmentRouter(store *fakeAppointmentStore, profile models.UserProfile) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAppointmentHandler(store, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(profileContextKey, profile)
	})
	r.PUT("/api/appointments/:id/status", h.UpdateStatus)
	return r
}

func putStatus(r *gin.Engine, id uuid.UUID, status string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/appointments/"+id.String()+"/status",
		strings.NewReader(`{"status":"`+status+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateStatusScopedToParties(t *testing.T) {
	patient := &models.PatientProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Name: "John Doe"},
	}
	stranger := &models.PatientProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Name: "Jane Smith"},
	}
	appt := &models.Appointment{
		ID:        uuid.New(),
		PatientID: patient.UID,
		DoctorID:  uuid.New(),
		Status:    models.AppointmentScheduled,
	}
	store := &fakeAppointmentStore{appts: map[uuid.UUID]*models.Appointment{appt.ID: appt}}

	// A third party cannot cancel someone else's consultation.
	w := putStatus(appointmentRouter(store, stranger), appt.ID, "Cancelled")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.AppointmentScheduled, appt.Status)

	// The booking patient can.
	w = putStatus(appointmentRouter(store, patient), appt.ID, "Cancelled")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AppointmentCancelled, appt.Status)
}
