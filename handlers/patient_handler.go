package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"neurocore-backend/models"
	"neurocore-backend/repository"
)

// PatientHandler serves the patient dashboard and the patient's own
// subcollections
type PatientHandler struct {
	profileRepo     *repository.ProfileRepository
	scanRepo        *repository.NeuralScanRepository
	appointmentRepo *repository.AppointmentRepository
	moodRepo        *repository.MoodTrackerRepository
	journalRepo     *repository.JournalRepository
	sessionLogRepo  *repository.SessionLogRepository
	accessLogRepo   *repository.AccessLogRepository
	cognitiveRepo   *repository.CognitiveTestRepository
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(
	profileRepo *repository.ProfileRepository,
	scanRepo *repository.NeuralScanRepository,
	appointmentRepo *repository.AppointmentRepository,
	moodRepo *repository.MoodTrackerRepository,
	journalRepo *repository.JournalRepository,
	sessionLogRepo *repository.SessionLogRepository,
	accessLogRepo *repository.AccessLogRepository,
	cognitiveRepo *repository.CognitiveTestRepository,
) *PatientHandler {
	return &PatientHandler{
		profileRepo:     profileRepo,
		scanRepo:        scanRepo,
		appointmentRepo: appointmentRepo,
		moodRepo:        moodRepo,
		journalRepo:     journalRepo,
		sessionLogRepo:  sessionLogRepo,
		accessLogRepo:   accessLogRepo,
		cognitiveRepo:   cognitiveRepo,
	}
}

// Dashboard handles GET /api/patient/dashboard. It assembles the landing
// view in one response: profile data, latest scan, next appointment with
// the doctor's name joined on, and the mood tracker series.
func (h *PatientHandler) Dashboard(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}
	patient, isPatient := models.AsPatient(profile)
	if !isPatient {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "This resource requires the patient role",
			},
		})
		return
	}

	ctx := c.Request.Context()
	data := gin.H{
		"profile":     patient,
		"patientData": patient.PatientData,
	}

	scan, err := h.scanRepo.Latest(ctx, patient.UID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	if scan != nil {
		data["latestScan"] = scan
	}

	next, err := h.appointmentRepo.NextScheduled(ctx, patient.UID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	if next != nil {
		// Appointments store the doctor id only; the display name is
		// joined on here.
		if doctor, err := h.profileRepo.GetByID(ctx, next.DoctorID); err == nil {
			next.DoctorName = doctor.DisplayName()
		} else if errors.Is(err, repository.ErrNotFound) {
			next.DoctorName = "Unknown"
		}
		data["nextAppointment"] = next
	}

	points, err := h.moodRepo.ListByUser(ctx, patient.UID)
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
	data["moodTracker"] = points

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// ListJournal handles GET /api/patient/journal
func (h *PatientHandler) ListJournal(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	entries, err := h.journalRepo.ListByUser(c.Request.Context(), profile.ID(), 50)
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
		"data":    entries,
	})
}

// CreateJournalRequest represents the request body for a journal entry
type CreateJournalRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreateJournal handles POST /api/patient/journal
func (h *PatientHandler) CreateJournal(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var req CreateJournalRequest
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

	entry := &models.JournalEntry{
		UserID:    profile.ID(),
		Text:      req.Text,
		Timestamp: time.Now(),
	}
	if err := h.journalRepo.Create(c.Request.Context(), entry); err != nil {
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
		"data":    entry,
	})
}

// ListSessionLogs handles GET /api/patient/session-logs
func (h *PatientHandler) ListSessionLogs(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	logs, err := h.sessionLogRepo.ListByUser(c.Request.Context(), profile.ID())
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
		"data":    logs,
	})
}

// CreateSessionLogRequest represents a finished therapy session
type CreateSessionLogRequest struct {
	Type     string `json:"type" binding:"required"`
	Duration string `json:"duration" binding:"required"`
	Result   string `json:"result"`
}

// CreateSessionLog handles POST /api/patient/session-logs
func (h *PatientHandler) CreateSessionLog(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var req CreateSessionLogRequest
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

	log := &models.SessionLog{
		UserID:   profile.ID(),
		Type:     req.Type,
		Date:     time.Now(),
		Duration: req.Duration,
		Result:   req.Result,
	}
	if err := h.sessionLogRepo.Create(c.Request.Context(), log); err != nil {
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
		"data":    log,
	})
}

// ListAccessLogs handles GET /api/patient/access-logs. Patients can audit
// who viewed their data.
func (h *PatientHandler) ListAccessLogs(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	logs, err := h.accessLogRepo.ListByUser(c.Request.Context(), profile.ID())
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
		"data":    logs,
	})
}

// ListCognitiveTests handles GET /api/patient/cognitive-tests
func (h *PatientHandler) ListCognitiveTests(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	results, err := h.cognitiveRepo.ListByUser(c.Request.Context(), profile.ID())
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
		"data":    results,
	})
}

// CreateCognitiveTestRequest represents a completed cognitive test
type CreateCognitiveTestRequest struct {
	Name         string `json:"name" binding:"required"`
	Memory       int    `json:"memory" binding:"min=0,max=100"`
	Focus        int    `json:"focus" binding:"min=0,max=100"`
	ReactionTime int    `json:"reactionTime" binding:"min=0"`
}

// CreateCognitiveTest handles POST /api/patient/cognitive-tests
func (h *PatientHandler) CreateCognitiveTest(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var req CreateCognitiveTestRequest
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

	result := &models.CognitiveTestResult{
		UserID:       profile.ID(),
		Name:         req.Name,
		Date:         time.Now(),
		Memory:       req.Memory,
		Focus:        req.Focus,
		ReactionTime: req.ReactionTime,
	}
	if err := h.cognitiveRepo.Create(c.Request.Context(), result); err != nil {
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
		"data":    result,
	})
}

// UpsertMoodRequest represents one mood tracker point
type UpsertMoodRequest struct {
	Name   string `json:"name" binding:"required"`
	Mood   int    `json:"mood" binding:"min=0,max=100"`
	Stress int    `json:"stress" binding:"min=0,max=100"`
}

// UpsertMood handles PUT /api/patient/mood-tracker
func (h *PatientHandler) UpsertMood(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var req UpsertMoodRequest
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

	point := models.MoodPoint{Name: req.Name, Mood: req.Mood, Stress: req.Stress}
	if err := h.moodRepo.Upsert(c.Request.Context(), profile.ID(), point); err != nil {
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
		"data":    point,
	})
}
