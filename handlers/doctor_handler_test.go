package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocore-backend/models"
	"neurocore-backend/repository"
)

type fakeAlertStore struct {
	alerts map[uuid.UUID]*models.Alert
}

func (s *fakeAlertStore) ListByDoctor(ctx context.Context, doctorID uuid.UUID, status *models.AlertStatus) ([]models.Alert, error) {
	return nil, nil
}

func (s *fakeAlertStore) MarkViewed(ctx context.Context, id, doctorID uuid.UUID) error {
	alert, ok := s.alerts[id]
	if !ok || alert.DoctorID != doctorID {
		return repository.ErrNotFound
	}
	alert.Status = models.AlertViewed
	return nil
}

func alertRouter(store *fakeAlertStore, profile models.UserProfile) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDoctorHandler(nil, nil, nil, nil, store, nil, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(profileContextKey, profile)
	})
	r.PUT("/api/doctor/alerts/:id/viewed", h.MarkAlertViewed)
	return r
}

func TestMarkAlertViewedScopedToOwner(t *testing.T) {
	owner := &models.DoctorProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Name: "Dr. Anya Sharma"},
	}
	other := &models.DoctorProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Name: "Dr. Kenji Tanaka"},
	}
	alert := &models.Alert{ID: uuid.New(), DoctorID: owner.UID, Status: models.AlertNew}
	store := &fakeAlertStore{alerts: map[uuid.UUID]*models.Alert{alert.ID: alert}}

	// Another doctor cannot dismiss it, even knowing the ID.
	r := alertRouter(store, other)
	req := httptest.NewRequest(http.MethodPut, "/api/doctor/alerts/"+alert.ID.String()+"/viewed", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.AlertNew, alert.Status)

	// The owning doctor can.
	r = alertRouter(store, owner)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/doctor/alerts/"+alert.ID.String()+"/viewed", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AlertViewed, alert.Status)
}
