package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neurocore-backend/models"
	"neurocore-backend/repository"
	"neurocore-backend/service"
	"neurocore-backend/storage"
)

// ScanStore is the slice of the scan repository the handler needs.
type ScanStore interface {
	Create(ctx context.Context, scan *models.NeuralScan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.NeuralScan, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.NeuralScan, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error
}

// ScanHandler handles HTTP requests for neural scans and their media
type ScanHandler struct {
	scanRepo         ScanStore
	accessService    *service.AccessService
	storage          storage.Storage
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanRepo ScanStore, accessService *service.AccessService, store storage.Storage) *ScanHandler {
	return &ScanHandler{
		scanRepo:      scanRepo,
		accessService: accessService,
		storage:       store,
		maxFileSize:   100 * 1024 * 1024, // 100MB, volumetric scans are large
		allowedMimeTypes: map[string]bool{
			"image/png":        true,
			"image/jpeg":       true,
			"application/dicom": true,
			"model/gltf-binary": true, // 3D scan renders
		},
	}
}

// ListScans handles GET /api/scans?patientId=. Patients see their own
// scans; doctors need an access grant from the patient.
func (h *ScanHandler) ListScans(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	patientID := profile.ID()
	if q := c.Query("patientId"); q != "" {
		pid, err := uuid.Parse(q)
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
		patientID = pid
	}

	if err := h.accessService.Authorize(c.Request.Context(), profile, patientID, "Viewed Neural Scans"); err != nil {
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

	scans, err := h.scanRepo.ListByUser(c.Request.Context(), patientID)
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
		"data":    scans,
	})
}

// UploadScan handles POST /api/scans. Multipart form: patient_id, type,
// findings (JSON array of strings) and an optional media file. Scans are
// produced by clinical staff, so patients cannot upload.
func (h *ScanHandler) UploadScan(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}
	if profile.Role() == models.RolePatient {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only doctors and administrators can upload scans",
			},
		})
		return
	}

	patientID, err := uuid.Parse(c.PostForm("patient_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_PATIENT_ID",
				"message": "Invalid patient_id format",
			},
		})
		return
	}

	if err := h.accessService.Authorize(c.Request.Context(), profile, patientID, "Uploaded Neural Scan"); err != nil {
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

	scanType := c.PostForm("type")
	if scanType == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_TYPE",
				"message": "Scan type is required",
			},
		})
		return
	}

	var findings models.ScanFindings
	if raw := c.PostForm("findings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &findings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_FINDINGS",
					"message": "Findings must be a JSON array of strings",
				},
			})
			return
		}
	}

	scan := &models.NeuralScan{
		ID:       uuid.New(),
		UserID:   patientID,
		Type:     scanType,
		Date:     time.Now(),
		Findings: findings,
	}

	fileHeader, err := c.FormFile("media")
	if err == nil {
		if fileHeader.Size > h.maxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_TOO_LARGE",
					"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
				},
			})
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = storage.ContentTypeFor(strings.ToLower(fileHeader.Filename))
		}
		if !h.allowedMimeTypes[mimeType] {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_FILE_TYPE",
					"message": "File type not allowed. Allowed types: PNG, JPEG, DICOM, GLB",
				},
			})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FILE_OPEN_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		defer file.Close()

		storagePath, err := h.storage.Upload(c.Request.Context(), scan.ID, fileHeader.Filename, file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UPLOAD_FAILED",
					"message": fmt.Sprintf("Failed to upload scan media: %v", err),
				},
			})
			return
		}
		scan.MediaPath = storagePath
	}

	if err := h.scanRepo.Create(c.Request.Context(), scan); err != nil {
		if scan.MediaPath != "" {
			h.storage.Delete(c.Request.Context(), scan.MediaPath)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": fmt.Sprintf("Failed to save scan record: %v", err),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    scan,
	})
}

// DownloadMedia handles GET /api/scans/:id/media
func (h *ScanHandler) DownloadMedia(c *gin.Context) {
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
				"message": "Invalid scan ID format",
			},
		})
		return
	}

	scan, err := h.scanRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Scan not found",
			},
		})
		return
	}

	if err := h.accessService.Authorize(c.Request.Context(), profile, scan.UserID, "Downloaded Scan Media"); err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ACCESS_DENIED",
				"message": "Patient has not granted you access",
			},
		})
		return
	}

	if scan.MediaPath == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_MEDIA",
				"message": "Scan has no media attached",
			},
		})
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), scan.MediaPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", storage.ContentTypeFor(scan.MediaPath))
	c.Status(http.StatusOK)
	io.Copy(c.Writer, reader)
}

// UpdateNotesRequest represents the request body for doctor notes
type UpdateNotesRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// UpdateNotes handles PUT /api/scans/:id/notes. Doctor notes are clinical
// annotations, so the writer must be a doctor the patient has granted
// access to, or an administrator.
func (h *ScanHandler) UpdateNotes(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}
	if profile.Role() == models.RolePatient {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only doctors and administrators can edit scan notes",
			},
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid scan ID format",
			},
		})
		return
	}

	scan, err := h.scanRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Scan not found",
			},
		})
		return
	}

	if err := h.accessService.Authorize(c.Request.Context(), profile, scan.UserID, "Updated Scan Notes"); err != nil {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ACCESS_DENIED",
				"message": "Patient has not granted you access",
			},
		})
		return
	}

	var req UpdateNotesRequest
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

	if err := h.scanRepo.UpdateNotes(c.Request.Context(), id, req.Notes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Scan not found",
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
		"data":    gin.H{"id": id, "doctorNotes": req.Notes},
	})
}
