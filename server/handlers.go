package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-portal-session/guard"
	"github.com/jrsteele09/go-portal-session/internal/errors"
	"github.com/jrsteele09/go-portal-session/maintenance"
	"github.com/jrsteele09/go-portal-session/principal"
	"github.com/jrsteele09/go-portal-session/session"
	"github.com/rs/zerolog/log"
)

const msgMissingCredentials = "Email and password are required."

func (s *Server) pageData(snap session.Snapshot) PageData {
	return PageData{User: snap.Principal, Role: snap.Role, Notice: snap.Reason.Message()}
}

// IndexHandler renders the public home page
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, pageIndex, s.pageData(s.sessions.Snapshot()))
	}
}

// SignInPageHandler displays the sign-in form (GET /signin). A visitor who is
// already signed in goes straight to the return path.
func (s *Server) SignInPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.sessions.Snapshot()
		returnTo := guard.SafeReturnPath(r.URL.Query().Get(guard.ReturnToParam))
		if snap.IsAuthenticated() {
			http.Redirect(w, r, afterSignIn(returnTo), http.StatusSeeOther)
			return
		}

		data := s.pageData(snap)
		data.ReturnTo = returnTo
		s.render(w, http.StatusOK, pageSignIn, data)
	}
}

// SignInSubmitHandler processes the sign-in form (POST /signin)
func (s *Server) SignInSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")
		returnTo := guard.SafeReturnPath(r.FormValue(guard.ReturnToParam))
		data := PageData{Email: email, ReturnTo: returnTo}

		if email == "" || password == "" {
			data.Error = msgMissingCredentials
			s.render(w, http.StatusBadRequest, pageSignIn, data)
			return
		}

		if err := s.sessions.Login(r.Context(), email, password); err != nil {
			data.Error = session.Message(err)
			s.render(w, loginFailureStatus(err), pageSignIn, data)
			return
		}
		http.Redirect(w, r, afterSignIn(returnTo), http.StatusSeeOther)
	}
}

// AdminLoginPageHandler displays the admin sign-in form (GET /admin/login)
func (s *Server) AdminLoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.sessions.Snapshot()
		if snap.Role == principal.RoleAdmin {
			http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
			return
		}
		s.render(w, http.StatusOK, pageAdminLogin, s.pageData(snap))
	}
}

// AdminLoginSubmitHandler processes the admin sign-in form (POST /admin/login)
func (s *Server) AdminLoginSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")
		data := PageData{Email: email}

		if email == "" || password == "" {
			data.Error = msgMissingCredentials
			s.render(w, http.StatusBadRequest, pageAdminLogin, data)
			return
		}

		if err := s.sessions.AdminLogin(r.Context(), email, password); err != nil {
			data.Error = session.Message(err)
			s.render(w, loginFailureStatus(err), pageAdminLogin, data)
			return
		}
		http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
	}
}

// LogoutHandler ends the session from any state
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Logout()
		http.Redirect(w, r, RouteHome, http.StatusSeeOther)
	}
}

// DashboardHandler renders the signed-in landing page
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, pageDashboard, s.pageData(s.sessions.Snapshot()))
	}
}

// AdminHandler renders the admin landing page
func (s *Server) AdminHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, pageAdmin, s.pageData(s.sessions.Snapshot()))
	}
}

// SessionResponse is the JSON view of the current session.
type SessionResponse struct {
	State           string               `json:"state"`
	Role            principal.Role       `json:"role"`
	IsAuthenticated bool                 `json:"isAuthenticated"`
	User            *principal.Principal `json:"user,omitempty"`
	Verification    string               `json:"verification"`
	Reason          string               `json:"reason,omitempty"`
	Message         string               `json:"message,omitempty"`
	Maintenance     maintenance.Status   `json:"maintenance"`
}

// SessionAPIHandler returns the session snapshot as JSON (GET /api/session)
func (s *Server) SessionAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.sessions.Snapshot()
		resp := SessionResponse{
			State:           snap.State.String(),
			Role:            snap.Role,
			IsAuthenticated: snap.IsAuthenticated(),
			User:            snap.Principal,
			Verification:    snap.Verification.String(),
			Message:         snap.Reason.Message(),
			Maintenance:     s.gate.Status(),
		}
		if snap.Reason != session.ReasonNone {
			resp.Reason = snap.Reason.String()
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Err(err).Msg("Failed to encode session response")
		}
	}
}

func afterSignIn(returnTo string) string {
	if returnTo == "" || returnTo == RouteHome {
		return RouteDashboard
	}
	return returnTo
}

func loginFailureStatus(err error) int {
	switch {
	case errors.Is(err, errors.ErrValidation), errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errors.ErrMaintenance), errors.Is(err, errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrTransport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
