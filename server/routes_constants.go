package server

import "github.com/jrsteele09/go-portal-session/guard"

// Route path constants
const (
	RouteHome = "/"

	// Sign-in surfaces
	RouteSignIn     = guard.SignInPath
	RouteAdminLogin = guard.AdminLoginPath
	RouteLogout     = "/logout"

	// Protected pages
	RouteDashboard = "/dashboard"
	RouteAdmin     = "/admin"

	// API Routes
	RouteAPISession = "/api/session"
)
