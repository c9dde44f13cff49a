package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"neurocore-backend/service"
)

// PrivacyHandler handles HTTP requests for a patient's privacy settings
type PrivacyHandler struct {
	privacyService *service.PrivacyService
}

// NewPrivacyHandler creates a new privacy handler
func NewPrivacyHandler(privacyService *service.PrivacyService) *PrivacyHandler {
	return &PrivacyHandler{privacyService: privacyService}
}

// GetSettings handles GET /api/patient/privacy
func (h *PrivacyHandler) GetSettings(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	settings, err := h.privacyService.GetSettings(c.Request.Context(), profile.ID())
	if err != nil {
		if errors.Is(err, service.ErrNotPatient) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Privacy settings exist only for patients",
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}

// SetSettingRequest represents one privacy toggle. Key is either a
// top-level setting name or "doctorAccess.<doctorId>".
type SetSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value *bool  `json:"value" binding:"required"`
}

// SetSetting handles PUT /api/patient/privacy. The response reports the
// toggle's final state: confirmed when the store write succeeded,
// rolled_back when it failed and the previous value was restored.
func (h *PrivacyHandler) SetSetting(c *gin.Context) {
	profile, ok := requireProfile(c)
	if !ok {
		return
	}

	var req SetSettingRequest
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

	state, err := h.privacyService.SetSetting(c.Request.Context(), profile.ID(), req.Key, *req.Value)
	if err != nil && state != service.ToggleRolledBack {
		switch {
		case errors.Is(err, service.ErrNotPatient):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Privacy settings exist only for patients",
				},
			})
		case errors.Is(err, service.ErrUnknownSetting), errors.Is(err, service.ErrDoctorNotAssigned):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_SETTING",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UPDATE_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	settings, serr := h.privacyService.GetSettings(c.Request.Context(), profile.ID())
	if serr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": serr.Error(),
			},
		})
		return
	}

	if state == service.ToggleRolledBack {
		// The local view already reflects the restored value; the client
		// re-renders from the settings in this response.
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TOGGLE_ROLLED_BACK",
				"message": err.Error(),
			},
			"data": gin.H{
				"state":    state,
				"settings": settings,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"state":    state,
			"settings": settings,
		},
	})
}
