package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"neurocore-backend/service"
)

// FlowHandler exposes the AI flows over HTTP
type FlowHandler struct {
	flowService *service.FlowService
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(flowService *service.FlowService) *FlowHandler {
	return &FlowHandler{flowService: flowService}
}

// respondFlow writes the shared success/error envelope for a flow result.
func respondFlow(c *gin.Context, out interface{}, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    out,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidFlowInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrSchemaViolation):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SCHEMA_VIOLATION",
				"message": "AI response did not match the expected schema",
			},
		})
	case errors.Is(err, service.ErrFlowUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AI_UNAVAILABLE",
				"message": "AI service unavailable",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FLOW_FAILED",
				"message": err.Error(),
			},
		})
	}
}

// AnalyzeHeatmap handles POST /api/flows/analyze-heatmap
func (h *FlowHandler) AnalyzeHeatmap(c *gin.Context) {
	var input service.AnalyzeHeatmapInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}
	out, err := h.flowService.AnalyzeHeatmap(c.Request.Context(), input)
	respondFlow(c, out, err)
}

// SimulateDream handles POST /api/flows/dream-simulation
func (h *FlowHandler) SimulateDream(c *gin.Context) {
	var input service.SimulateDreamInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}
	out, err := h.flowService.SimulateDream(c.Request.Context(), input)
	respondFlow(c, out, err)
}

// SummarizeNotes handles POST /api/flows/notes-summary
func (h *FlowHandler) SummarizeNotes(c *gin.Context) {
	var input service.SummarizeNotesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}
	out, err := h.flowService.SummarizeNotes(c.Request.Context(), input)
	respondFlow(c, out, err)
}

// RateEffectiveness handles POST /api/flows/effectiveness-rating
func (h *FlowHandler) RateEffectiveness(c *gin.Context) {
	var input service.RateEffectivenessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}
	out, err := h.flowService.RateEffectiveness(c.Request.Context(), input)
	respondFlow(c, out, err)
}

// CompareFeedback handles POST /api/flows/feedback-comparison
func (h *FlowHandler) CompareFeedback(c *gin.Context) {
	var input service.CompareFeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}
	out, err := h.flowService.CompareFeedback(c.Request.Context(), input)
	respondFlow(c, out, err)
}
