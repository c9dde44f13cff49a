package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"neurocore-backend/models"
	"neurocore-backend/service"
)

const profileContextKey = "profile"

// RequireAuth validates the bearer token and stores the resolved profile on
// the gin context. A valid session with no profile row passes through with
// a nil profile; handlers that need one use CurrentProfile.
func RequireAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHENTICATED",
					"message": "Missing bearer token",
				},
			})
			return
		}

		profile, err := auth.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Session token is invalid or expired",
				},
			})
			return
		}

		if profile != nil {
			c.Set(profileContextKey, profile)
		}
		c.Next()
	}
}

// RequireRole rejects requests whose profile is missing or has a different
// role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := CurrentProfile(c)
		if profile == nil || profile.Role() != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "This resource requires the " + string(role) + " role",
				},
			})
			return
		}
		c.Next()
	}
}

// CurrentProfile returns the authenticated profile, or nil when the session
// has none.
func CurrentProfile(c *gin.Context) models.UserProfile {
	v, ok := c.Get(profileContextKey)
	if !ok {
		return nil
	}
	profile, ok := v.(models.UserProfile)
	if !ok {
		return nil
	}
	return profile
}

// requireProfile is CurrentProfile plus the no-profile error response.
func requireProfile(c *gin.Context) (models.UserProfile, bool) {
	profile := CurrentProfile(c)
	if profile == nil {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_PROFILE",
				"message": "Session has no profile. Contact an administrator.",
			},
		})
		return nil, false
	}
	return profile, true
}
