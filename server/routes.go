package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleware()...))

	// SIGN IN
	s.RegisterRouteHandler("GET "+RouteSignIn, ChainMiddleware(s.SignInPageHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSignIn, ChainMiddleware(s.SignInSubmitHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminLogin, ChainMiddleware(s.AdminLoginPageHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAdminLogin, ChainMiddleware(s.AdminLoginSubmitHandler(), s.HTMLMiddleware()...))

	// Logout is always reachable, maintenance included.
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.LoggingMiddleware, s.RecoverMiddleware))

	// Guarded pages
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleware(s.RequireAuthenticated)...))
	s.RegisterRouteHandler("GET "+RouteAdmin, ChainMiddleware(s.AdminHandler(), s.HTMLMiddleware(s.RequireAdmin)...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionAPIHandler(), s.APIMiddleware()...))
}
