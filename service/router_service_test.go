package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"neurocore-backend/models"
)

func profileWithRole(role models.Role) models.UserProfile {
	base := models.BaseProfile{UID: uuid.New(), Mail: "user@neurocore.dev", Name: "User"}
	switch role {
	case models.RoleDoctor:
		return &models.DoctorProfile{BaseProfile: base}
	case models.RoleAdmin:
		return &models.AdminProfile{BaseProfile: base}
	default:
		return &models.PatientProfile{BaseProfile: base}
	}
}

func TestResolveState(t *testing.T) {
	svc := NewRouterService()

	assert.Equal(t, RouteUnauthenticated, svc.ResolveState(false, nil))
	assert.Equal(t, RouteNoProfile, svc.ResolveState(true, nil))
	assert.Equal(t, RoutePatient, svc.ResolveState(true, profileWithRole(models.RolePatient)))
	assert.Equal(t, RouteDoctor, svc.ResolveState(true, profileWithRole(models.RoleDoctor)))
	assert.Equal(t, RouteAdmin, svc.ResolveState(true, profileWithRole(models.RoleAdmin)))
}

func TestLandingPaths(t *testing.T) {
	svc := NewRouterService()

	assert.Equal(t, "/", svc.LandingPath(RoutePatient))
	assert.Equal(t, "/doctor", svc.LandingPath(RouteDoctor))
	assert.Equal(t, "/admin", svc.LandingPath(RouteAdmin))
}

func TestDoctorAtLoginRedirectsExactlyOnce(t *testing.T) {
	svc := NewRouterService()

	target := svc.Redirect(RouteDoctor, "/login")
	assert.Equal(t, "/doctor", target)

	// The redirect target itself triggers no further redirect.
	assert.Empty(t, svc.Redirect(RouteDoctor, target))
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	svc := NewRouterService()

	assert.Equal(t, "/login", svc.Redirect(RouteUnauthenticated, "/doctor/patients"))
	assert.Equal(t, "/login", svc.Redirect(RouteUnauthenticated, "/"))
	// Already at the login page, stay.
	assert.Empty(t, svc.Redirect(RouteUnauthenticated, "/login"))
}

func TestAuthenticatedStaysOffLoginPage(t *testing.T) {
	svc := NewRouterService()

	assert.Equal(t, "/", svc.Redirect(RoutePatient, "/login"))
	assert.Equal(t, "/admin", svc.Redirect(RouteAdmin, "/login"))
	assert.Empty(t, svc.Redirect(RoutePatient, "/therapy-hub"))
}

func TestNavEntriesByRole(t *testing.T) {
	svc := NewRouterService()

	patient := svc.NavEntries(RoutePatient)
	assert.Equal(t, "/", patient[0].Path)
	for _, entry := range svc.NavEntries(RouteDoctor) {
		assert.Contains(t, entry.Path, "/doctor")
	}
	for _, entry := range svc.NavEntries(RouteAdmin) {
		assert.Contains(t, entry.Path, "/admin")
	}
	assert.Nil(t, svc.NavEntries(RouteUnauthenticated))
	assert.Nil(t, svc.NavEntries(RouteNoProfile))
}
