package server

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/jrsteele09/go-portal-session/guard"
	"github.com/rs/zerolog/log"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler) // Call the middleware function
	}
	return chainedHandler
}

func (s *Server) HTMLMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.FrameSecurityMiddleware,
		s.MaintenanceMiddleware,
	}
	chainedMiddleWare = append(chainedMiddleWare, mw...)
	return chainedMiddleWare
}

func (s *Server) APIMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.NoStoreMiddleware,
	}
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env != "DEV" {
			next(w, r)
			return
		}
		logRoute(r.Method, r.URL.Path)
		next(w, r)
	}
}

func (s *Server) FrameSecurityMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Prevent embedding on other sites
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		next(w, r)
	}
}

func (s *Server) NoStoreMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next(w, r)
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logError(r.Method, r.URL.Path, fmt.Sprintf("panic: %v", rec))
				log.Debug().Bytes("stack", debug.Stack()).Msg("recovered handler panic")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

// MaintenanceMiddleware replaces the page with the maintenance status page
// unless the visitor's role or the route bypasses it. While the session is
// still booting the role is unknown, so a loading placeholder is shown.
func (s *Server) MaintenanceMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.sessions.Snapshot()
		if !s.gate.Blocks(snap.Role, r.URL.Path) {
			next(w, r)
			return
		}
		if snap.Booting() {
			s.renderLoading(w)
			return
		}
		s.renderMaintenance(w)
	}
}

// RequireAuthenticated admits users and admins.
func (s *Server) RequireAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.applyDecision(w, r, next, guard.Authenticated(s.sessions.Snapshot(), r.URL.RequestURI()))
	}
}

// RequireAdmin admits admins only.
func (s *Server) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.applyDecision(w, r, next, guard.Admin(s.sessions.Snapshot()))
	}
}

func (s *Server) applyDecision(w http.ResponseWriter, r *http.Request, next http.HandlerFunc, d guard.Decision) {
	switch d.Outcome {
	case guard.Allow:
		next(w, r)
	case guard.Redirect:
		http.Redirect(w, r, d.Location, http.StatusSeeOther)
	default:
		s.renderLoading(w)
	}
}
