package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"neurocore-backend/service"
)

// SessionHandler resolves the view state, redirect target and navigation
// manifest for the authenticated session
type SessionHandler struct {
	routerService *service.RouterService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(routerService *service.RouterService) *SessionHandler {
	return &SessionHandler{routerService: routerService}
}

// Resolve handles GET /api/session. The optional ?path= query carries the
// client's current location; the response includes the single redirect hop
// the client must take, if any.
func (h *SessionHandler) Resolve(c *gin.Context) {
	profile := CurrentProfile(c)
	state := h.routerService.ResolveState(true, profile)

	resp := gin.H{
		"state":       state,
		"landingPath": h.routerService.LandingPath(state),
		"nav":         h.routerService.NavEntries(state),
		"minSplashMs": service.MinSplashDuration.Milliseconds(),
	}
	if profile != nil {
		resp["profile"] = profile
	}
	if path := c.Query("path"); path != "" {
		if target := h.routerService.Redirect(state, path); target != "" {
			resp["redirect"] = target
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
	})
}
