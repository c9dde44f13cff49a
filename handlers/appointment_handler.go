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
)

// AppointmentStore is the slice of the appointment repository the handler
// needs.
type AppointmentStore interface {
	Create(ctx context.Context, appt *models.Appointment) error
	ListByUser(ctx context.Context, userID uuid.UUID, status *models.AppointmentStatus) ([]models.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus, actorID uuid.UUID) error
}

// AppointmentHandler handles HTTP requests for consultations
type AppointmentHandler struct {
	appointmentRepo AppointmentStore
	profileRepo     *repository.ProfileRepository
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointmentRepo AppointmentStore, profileRepo *repository.ProfileRepository) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentRepo: appointmentRepo,
		profileRepo:     profileRepo,
	}
}

// CreateAppointmentRequest represents the request body for booking a
// consultation
type CreateAppointmentRequest struct {
	DoctorID string    `json:"doctorId" binding:"required"`
	Date     time.Time `json:"date" binding:"required"`
	Purpose  string    `json:"purpose" binding:"required"`
}

// Create handles POST /api/appointments. The caller books for themselves.
func (h *AppointmentHandler) Create(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var req CreateAppointmentRequest
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

	doctor, err := h.profileRepo.GetByID(c.Request.Context(), doctorID)
	if err != nil || doctor.Role() != models.RoleDoctor {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_DOCTOR",
				"message": "doctorId does not refer to a doctor",
			},
		})
		return
	}

	appt := &models.Appointment{
		UserID:    profile.ID(),
		DoctorID:  doctorID,
		PatientID: profile.ID(),
		Date:      req.Date,
		Purpose:   req.Purpose,
		Status:    models.AppointmentScheduled,
	}
	if err := h.appointmentRepo.Create(c.Request.Context(), appt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	appt.DoctorName = doctor.DisplayName()

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    appt,
	})
}

// ListMine handles GET /api/appointments. The optional ?status= query
// filters by appointment status. Doctors see consultations booked with
// them, everyone else their own.
func (h *AppointmentHandler) ListMine(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var status *models.AppointmentStatus
	if q := c.Query("status"); q != "" {
		s := models.AppointmentStatus(q)
		if s != models.AppointmentScheduled && s != models.AppointmentCompleted && s != models.AppointmentCancelled {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_STATUS",
					"message": "Status must be Scheduled, Completed or Cancelled",
				},
			})
			return
		}
		status = &s
	}

	ctx := c.Request.Context()
	var (
		appts []models.Appointment
		err   error
	)
	if profile.Role() == models.RoleDoctor {
		appts, err = h.appointmentRepo.ListByDoctor(ctx, profile.ID())
	} else {
		appts, err = h.appointmentRepo.ListByUser(ctx, profile.ID(), status)
	}
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

	// Join doctor display names onto the records.
	names, err := h.profileRepo.DisplayNameMap(ctx)
	if err == nil {
		for i := range appts {
			if name, ok := names[appts[i].DoctorID]; ok {
				appts[i].DoctorName = name
			} else {
				appts[i].DoctorName = "Unknown"
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    appts,
	})
}

// UpdateStatusRequest represents the request body for an appointment
// status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Scheduled Completed Cancelled"`
}

// UpdateStatus handles PUT /api/appointments/:id/status. Only the patient
// or the doctor on the appointment can change it.
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
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
				"message": "Invalid appointment ID format",
			},
		})
		return
	}

	var req UpdateStatusRequest
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

	if err := h.appointmentRepo.UpdateStatus(c.Request.Context(), id, models.AppointmentStatus(req.Status), profile.ID()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Appointment not found",
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
		"data":    gin.H{"id": id, "status": req.Status},
	})
}
