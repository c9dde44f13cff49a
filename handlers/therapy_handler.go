package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neurocore-backend/models"
	"neurocore-backend/repository"
)

// ModuleStore is the slice of the therapy module repository the handler
// needs.
type ModuleStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.TherapyModule, error)
	Assign(ctx context.Context, module *models.TherapyModule) error
	UpdateProgress(ctx context.Context, id, userID uuid.UUID, progress int) error
}

// TherapyHandler handles HTTP requests for the therapy catalog and
// per-patient module progress
type TherapyHandler struct {
	contentRepo *repository.TherapyContentRepository
	moduleRepo  ModuleStore
}

// NewTherapyHandler creates a new therapy handler
func NewTherapyHandler(contentRepo *repository.TherapyContentRepository, moduleRepo ModuleStore) *TherapyHandler {
	return &TherapyHandler{
		contentRepo: contentRepo,
		moduleRepo:  moduleRepo,
	}
}

// ListContent handles GET /api/therapy/content
func (h *TherapyHandler) ListContent(c *gin.Context) {
	items, err := h.contentRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// ListModules handles GET /api/therapy/modules. Returns the caller's own
// progress records.
func (h *TherapyHandler) ListModules(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	modules, err := h.moduleRepo.ListByUser(c.Request.Context(), profile.ID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    modules,
	})
}

// AssignModuleRequest represents the request body for starting a module
type AssignModuleRequest struct {
	ContentID string `json:"contentId" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// AssignModule handles POST /api/therapy/modules
func (h *TherapyHandler) AssignModule(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var req AssignModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	contentID, err := uuid.Parse(req.ContentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid contentId format",
			},
		})
		return
	}

	module := &models.TherapyModule{
		UserID:    profile.ID(),
		ContentID: contentID,
		Name:      req.Name,
	}
	if err := h.moduleRepo.Assign(c.Request.Context(), module); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    module,
	})
}

// UpdateProgressRequest represents a module progress update
type UpdateProgressRequest struct {
	Progress *int `json:"progress" binding:"required,min=0,max=100"`
}

// UpdateProgress handles PUT /api/therapy/modules/:id. Progress belongs to
// the module's owner, so the update is scoped to the caller.
func (h *TherapyHandler) UpdateProgress(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid module ID format",
			},
		})
		return
	}

	var req UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if err := h.moduleRepo.UpdateProgress(c.Request.Context(), id, profile.ID(), *req.Progress); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Therapy module not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"id": id, "progress": *req.Progress},
	})
}
