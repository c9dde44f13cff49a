package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neurocore-backend/models"
	"neurocore-backend/repository"
	"neurocore-backend/service"
)

// ProfileDirectory is the slice of the profile repository the handler needs.
type ProfileDirectory interface {
	List(ctx context.Context) ([]models.UserProfile, error)
	DisplayNameMap(ctx context.Context) (map[uuid.UUID]string, error)
	AssignPatient(ctx context.Context, doctorID, patientID uuid.UUID) error
}

// AdminHandler serves user management, the cross-user access log feed and
// therapy catalog administration
type AdminHandler struct {
	profileRepo    ProfileDirectory
	accessLogRepo  *repository.AccessLogRepository
	contentRepo    *repository.TherapyContentRepository
	privacyService *service.PrivacyService
	authService    *service.AuthService
	logLimit       int
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	profileRepo ProfileDirectory,
	accessLogRepo *repository.AccessLogRepository,
	contentRepo *repository.TherapyContentRepository,
	privacyService *service.PrivacyService,
	authService *service.AuthService,
	logLimit int,
) *AdminHandler {
	return &AdminHandler{
		profileRepo:    profileRepo,
		accessLogRepo:  accessLogRepo,
		contentRepo:    contentRepo,
		privacyService: privacyService,
		authService:    authService,
		logLimit:       logLimit,
	}
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	profiles, err := h.profileRepo.List(c.Request.Context())
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
		"data":    profiles,
	})
}

// CreateUserRequest represents the request body for provisioning a user
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required"`
	Role        string `json:"role" binding:"required,oneof=patient doctor admin"`
}

// CreateUser handles POST /api/admin/users. Unlike self-service signup,
// admins can provision any role.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
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

	profile, err := h.authService.CreateAccount(c.Request.Context(), req.Email, req.Password, req.DisplayName, models.Role(req.Role))
	if err != nil {
		if err == service.ErrEmailTaken {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMAIL_TAKEN",
					"message": "An account with this email already exists",
				},
			})
			return
		}
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
		"data":    profile,
	})
}

// ListAccessLogs handles GET /api/admin/access-logs. This is the fan-in
// feed across every user's access log, newest first, with display names
// joined on. The query needs its composite index in place; without it the
// response is a 503 naming the missing index rather than a generic error.
func (h *AdminHandler) ListAccessLogs(c *gin.Context) {
	ctx := c.Request.Context()

	logs, err := h.accessLogRepo.ListAcrossUsers(ctx, h.logLimit)
	if err != nil {
		if repository.IsIndexMissing(err) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INDEX_MISSING",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	names, err := h.profileRepo.DisplayNameMap(ctx)
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
	enriched := service.EnrichWithNames(logs, func(l models.AccessLog) uuid.UUID { return l.UserID }, names)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    enriched,
	})
}

// AssignDoctorRequest represents the request body for assigning a patient
// to a doctor
type AssignDoctorRequest struct {
	DoctorID  string `json:"doctorId" binding:"required"`
	PatientID string `json:"patientId" binding:"required"`
}

// AssignDoctor handles POST /api/admin/assignments. Assignment is the only
// path that inserts a doctorAccess key into a patient's privacy settings;
// the patient then controls its value.
func (h *AdminHandler) AssignDoctor(c *gin.Context) {
	var req AssignDoctorRequest
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

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid doctorId format",
			},
		})
		return
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid patientId format",
			},
		})
		return
	}

	if err := h.profileRepo.AssignPatient(c.Request.Context(), doctorID, patientID); err != nil {
		if err == repository.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Doctor or patient not found",
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

	// The patient's cached privacy view is stale now.
	h.privacyService.Invalidate(patientID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"doctorId":  doctorID,
			"patientId": patientID,
		},
	})
}

// CreateTherapyContentRequest represents a new therapy catalog entry
type CreateTherapyContentRequest struct {
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=Audio Game 'VR Sim'"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// CreateTherapyContent handles POST /api/admin/therapy-content
func (h *AdminHandler) CreateTherapyContent(c *gin.Context) {
	var req CreateTherapyContentRequest
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

	item := &models.TherapyContent{
		Name:        req.Name,
		Type:        models.TherapyContentType(req.Type),
		Category:    req.Category,
		Added:       time.Now(),
		Description: req.Description,
	}
	if err := h.contentRepo.Create(c.Request.Context(), item); err != nil {
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
		"data":    item,
	})
}
