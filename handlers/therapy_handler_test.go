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

type fakeModuleStore struct {
	modules map[uuid.UUID]*models.TherapyModule
}

func (s *fakeModuleStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.TherapyModule, error) {
	return nil, nil
}

func (s *fakeModuleStore) Assign(ctx context.Context, module *models.TherapyModule) error {
	s.modules[module.ID] = module
	return nil
}

func (s *fakeModuleStore) UpdateProgress(ctx context.Context, id, userID uuid.UUID, progress int) error {
	module, ok := s.modules[id]
	if !ok || module.UserID != userID {
		return repository.ErrNotFound
	}
	module.Progress = progress
	return nil
}

func moduleRouter(store *fakeModuleStore, profile models.UserProfile) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTherapyHandler(nil, store)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(profileContextKey, profile)
	})
	r.PUT("/api/therapy/modules/:id", h.UpdateProgress)
	return r
}

func putProgress(r *gin.Engine, id uuid.UUID, progress string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/therapy/modules/"+id.String(),
		strings.NewReader(`{"progress":`+progress+`}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateProgressScopedToOwner(t *testing.T) {
	owner := &models.PatientProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Name: "John Doe"},
	}
	other := &models.PatientProfile{
		BaseProfile: models.BaseProfile{UID: uuid.New(), Name: "Jane Smith"},
	}
	module := &models.TherapyModule{ID: uuid.New(), UserID: owner.UID, Name: "Calm Room", Progress: 40}
	store := &fakeModuleStore{modules: map[uuid.UUID]*models.TherapyModule{module.ID: module}}

	// Another patient cannot move someone else's progress.
	w := putProgress(moduleRouter(store, other), module.ID, "90")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40, module.Progress)

	// The owner can.
	w = putProgress(moduleRouter(store, owner), module.ID, "90")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 90, module.Progress)
}
