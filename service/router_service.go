package service

import (
	"time"

	"neurocore-backend/models"
)

// RouteState is the session resolution state that decides which top-level
// view a client mounts.
type RouteState string

const (
	RouteInitializing    RouteState = "initializing"
	RouteUnauthenticated RouteState = "unauthenticated"
	RouteNoProfile       RouteState = "no_profile"
	RoutePatient         RouteState = "patient"
	RouteDoctor          RouteState = "doctor"
	RouteAdmin           RouteState = "admin"
)

const (
	// LoginPath is the only path reachable while unauthenticated.
	LoginPath = "/login"
	// MinSplashDuration is the UX floor for the initializing screen.
	// Clients hold the splash for at least this long even when session
	// resolution finishes sooner.
	MinSplashDuration = 2500 * time.Millisecond
)

// NavEntry is one sidebar navigation item.
type NavEntry struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

var patientNav = []NavEntry{
	{Path: "/", Label: "Dashboard"},
	{Path: "/brain-scan", Label: "BrainScan Viewer"},
	{Path: "/cognitive-tracker", Label: "Cognitive Tracker"},
	{Path: "/therapy-hub", Label: "Therapy Hub"},
	{Path: "/consultations", Label: "Consultations"},
	{Path: "/settings", Label: "Settings"},
}

var doctorNav = []NavEntry{
	{Path: "/doctor", Label: "Dashboard"},
	{Path: "/doctor/patients", Label: "Patient Directory"},
	{Path: "/doctor/brain-scan-lab", Label: "BrainScan Lab"},
	{Path: "/doctor/cognitive-reports", Label: "Cognitive Reports"},
	{Path: "/doctor/therapy-oversight", Label: "Therapy Oversight"},
	{Path: "/doctor/consultations", Label: "Live Consultations"},
	{Path: "/doctor/settings", Label: "Settings"},
}

var adminNav = []NavEntry{
	{Path: "/admin", Label: "Dashboard"},
	{Path: "/admin/users", Label: "User Management"},
	{Path: "/admin/scan-center", Label: "Scan Control"},
	{Path: "/admin/ai-engine", Label: "AI Engine"},
	{Path: "/admin/logs", Label: "Logs & Analytics"},
	{Path: "/admin/settings", Label: "System Settings"},
}

// RouterService resolves the view state, landing page and navigation
// manifest for a session. It is pure over its inputs so the redirect rules
// can be tested without any HTTP plumbing.
type RouterService struct{}

// NewRouterService creates a new router service
func NewRouterService() *RouterService {
	return &RouterService{}
}

// ResolveState maps session resolution results to a route state.
// authenticated=false means no valid session; a valid session whose profile
// lookup returned nothing is the dead-end no_profile state, which needs
// operator re-provisioning rather than client-side recovery.
func (s *RouterService) ResolveState(authenticated bool, profile models.UserProfile) RouteState {
	if !authenticated {
		return RouteUnauthenticated
	}
	if profile == nil {
		return RouteNoProfile
	}
	switch profile.Role() {
	case models.RolePatient:
		return RoutePatient
	case models.RoleDoctor:
		return RouteDoctor
	case models.RoleAdmin:
		return RouteAdmin
	default:
		return RouteNoProfile
	}
}

// LandingPath returns the default landing page for a state.
func (s *RouterService) LandingPath(state RouteState) string {
	switch state {
	case RoutePatient, RouteNoProfile:
		return "/"
	case RouteDoctor:
		return "/doctor"
	case RouteAdmin:
		return "/admin"
	default:
		return LoginPath
	}
}

// Redirect returns the path a client at the given path must navigate to,
// or "" when it may stay. The rules guarantee at most one hop:
// unauthenticated sessions anywhere but the login page go to the login
// page, and authenticated sessions on the login page go to their landing
// page. A redirect target never itself triggers a redirect, so no loop is
// possible.
func (s *RouterService) Redirect(state RouteState, path string) string {
	switch state {
	case RouteInitializing:
		return ""
	case RouteUnauthenticated:
		if path != LoginPath {
			return LoginPath
		}
		return ""
	default:
		if path == LoginPath {
			return s.LandingPath(state)
		}
		return ""
	}
}

// NavEntries returns the sidebar manifest for a state. Unauthenticated and
// profile-less sessions see no navigation.
func (s *RouterService) NavEntries(state RouteState) []NavEntry {
	switch state {
	case RoutePatient:
		return patientNav
	case RouteDoctor:
		return doctorNav
	case RouteAdmin:
		return adminNav
	default:
		return nil
	}
}
