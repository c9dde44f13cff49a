package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neurocore-backend/models"
	"neurocore-backend/repository"
	"neurocore-backend/service"
)

// AlertStore is the slice of the alert repository the handler needs.
type AlertStore interface {
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, status *models.AlertStatus) ([]models.Alert, error)
	MarkViewed(ctx context.Context, id, doctorID uuid.UUID) error
}

// DoctorHandler serves the doctor dashboard: assigned patients, cross-
// patient aggregates and anomaly alerts
type DoctorHandler struct {
	profileRepo    *repository.ProfileRepository
	sessionLogRepo *repository.SessionLogRepository
	scanRepo       *repository.NeuralScanRepository
	cognitiveRepo  *repository.CognitiveTestRepository
	alertRepo      AlertStore
	accessService  *service.AccessService
	aggregator     *service.Aggregator
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(
	profileRepo *repository.ProfileRepository,
	sessionLogRepo *repository.SessionLogRepository,
	scanRepo *repository.NeuralScanRepository,
	cognitiveRepo *repository.CognitiveTestRepository,
	alertRepo AlertStore,
	accessService *service.AccessService,
	aggregator *service.Aggregator,
) *DoctorHandler {
	return &DoctorHandler{
		profileRepo:    profileRepo,
		sessionLogRepo: sessionLogRepo,
		scanRepo:       scanRepo,
		cognitiveRepo:  cognitiveRepo,
		alertRepo:      alertRepo,
		accessService:  accessService,
		aggregator:     aggregator,
	}
}

// ListPatients handles GET /api/doctor/patients. Returns the doctor's
// assigned patients only.
func (h *DoctorHandler) ListPatients(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}
	doctor, isDoctor := models.AsDoctor(profile)
	if !isDoctor {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "This resource requires the doctor role",
			},
		})
		return
	}

	ctx := c.Request.Context()
	patients := make([]models.UserProfile, 0, len(doctor.Patients))
	for _, id := range doctor.Patients {
		p, err := h.profileRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
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
		patients = append(patients, p)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    patients,
	})
}

// GetPatient handles GET /api/doctor/patients/:id. The access check runs
// first and records the view in the patient's access log; a denial is
// logged as a violation and returns 403.
func (h *DoctorHandler) GetPatient(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid patient ID format",
			},
		})
		return
	}

	ctx := c.Request.Context()
	if err := h.accessService.Authorize(ctx, profile, patientID, "Viewed Patient Record"); err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ACCESS_DENIED",
					"message": "Patient has not granted you access",
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

	patient, err := h.profileRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Patient not found",
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

	logs, err := h.sessionLogRepo.ListByUser(ctx, patientID)
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
	scans, err := h.scanRepo.ListByUser(ctx, patientID)
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
	tests, err := h.cognitiveRepo.ListByUser(ctx, patientID)
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
		"data": gin.H{
			"profile":        patient,
			"sessionLogs":    logs,
			"neuralScans":    scans,
			"cognitiveTests": tests,
		},
	})
}

// AggregateSessionLogs handles GET /api/doctor/session-logs. Fans out over
// every patient, joins display names and returns the merged feed newest
// first. Per-patient fetch failures surface as warnings, not errors.
func (h *DoctorHandler) AggregateSessionLogs(c *gin.Context) {
	if _, ok := requireProfile(c); !ok {
		return
	}

	result, err := service.Aggregate(
		c.Request.Context(),
		h.aggregator,
		service.ParentFilter{Role: models.RolePatient},
		h.sessionLogRepo.ListByUser,
		func(log models.SessionLog) time.Time { return log.Date },
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AGGREGATION_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ListAlerts handles GET /api/doctor/alerts. The optional ?status= query
// filters to New or Viewed.
func (h *DoctorHandler) ListAlerts(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var status *models.AlertStatus
	if q := c.Query("status"); q != "" {
		s := models.AlertStatus(q)
		if s != models.AlertNew && s != models.AlertViewed {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_STATUS",
					"message": "Status must be New or Viewed",
				},
			})
			return
		}
		status = &s
	}

	alerts, err := h.alertRepo.ListByDoctor(c.Request.Context(), profile.ID(), status)
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
		"data":    alerts,
	})
}

// MarkAlertViewed handles PUT /api/doctor/alerts/:id/viewed
func (h *DoctorHandler) MarkAlertViewed(c *gin.Context) {
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
				"message": "Invalid alert ID format",
			},
		})
		return
	}

	if err := h.alertRepo.MarkViewed(c.Request.Context(), id, profile.ID()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Alert not found",
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
		"data":    gin.H{"status": models.AlertViewed},
	})
}
