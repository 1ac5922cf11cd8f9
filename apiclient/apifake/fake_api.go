package apifake

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-portal-session/apiclient"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	Admin        bool
	Active       bool
}

func (a *account) view() map[string]any {
	return map[string]any{
		"id":       a.ID,
		"name":     a.Name,
		"email":    a.Email,
		"role":     roleClaim(a),
		"isActive": a.Active,
	}
}

// Server is an in-process stand-in for the portal API.
type Server struct {
	secret  []byte
	nowTime func() time.Time
	mux     *http.ServeMux

	lock               sync.RWMutex
	accounts           map[string]*account // id -> account
	emailIDs           map[string]string   // email -> id
	maintenanceMode    bool
	serviceMaintenance bool
	forbidBlocked      bool
	calls              []string
}

type Option func(*Server)

// WithNowTime sets the clock used for token issuing and validation
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

// WithForbiddenStatus makes the status endpoint answer 403 for blocked
// accounts instead of {"isActive": false}.
func WithForbiddenStatus() Option {
	return func(s *Server) {
		s.forbidBlocked = true
	}
}

func New(secret string, options ...Option) *Server {
	s := &Server{
		secret:   []byte(secret),
		nowTime:  time.Now,
		mux:      http.NewServeMux(),
		accounts: make(map[string]*account),
		emailIDs: make(map[string]string),
	}
	for _, opt := range options {
		opt(s)
	}

	s.mux.HandleFunc("POST "+apiclient.PathLogin, s.loginHandler(false))
	s.mux.HandleFunc("POST "+apiclient.PathAdminLogin, s.loginHandler(true))
	s.mux.HandleFunc("GET "+apiclient.PathVerify, s.verifyHandler())
	s.mux.HandleFunc("GET "+apiclient.PathAdminVerify, s.adminVerifyHandler())
	s.mux.HandleFunc("GET "+apiclient.PathStatus, s.statusHandler())
	s.mux.HandleFunc("GET "+apiclient.PathPublicSettings, s.settingsHandler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	s.calls = append(s.calls, r.URL.Path)
	down := s.serviceMaintenance && r.URL.Path != apiclient.PathPublicSettings
	s.lock.Unlock()

	if down {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"maintenance": true, "message": "Site under maintenance"})
		return
	}
	s.mux.ServeHTTP(w, r)
}

// AddUser registers a regular account and returns its id.
func (s *Server) AddUser(email, password, name string) (string, error) {
	return s.addAccount(email, password, name, false)
}

// AddAdmin registers an admin account and returns its id.
func (s *Server) AddAdmin(email, password, name string) (string, error) {
	return s.addAccount(email, password, name, true)
}

func (s *Server) addAccount(email, password, name string, admin bool) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	id := uuid.New().String()
	s.accounts[id] = &account{ID: id, Email: email, Name: name, PasswordHash: hash, Admin: admin, Active: true}
	s.emailIDs[strings.ToLower(email)] = id
	return id, nil
}

// SetActive blocks or unblocks an account.
func (s *Server) SetActive(email string, active bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	id, ok := s.emailIDs[strings.ToLower(email)]
	if !ok {
		return errors.New("not found")
	}
	s.accounts[id].Active = active
	return nil
}

// SetMaintenanceMode sets what the public settings probe reports.
func (s *Server) SetMaintenanceMode(on bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.maintenanceMode = on
}

// SetServiceMaintenance makes every endpoint except the public settings
// probe answer 503 with a maintenance flag.
func (s *Server) SetServiceMaintenance(on bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.serviceMaintenance = on
}

// IssueToken mints a token for an existing account without a login call.
func (s *Server) IssueToken(email string) (string, error) {
	s.lock.RLock()
	id, ok := s.emailIDs[strings.ToLower(email)]
	var u *account
	if ok {
		u = s.accounts[id]
	}
	s.lock.RUnlock()

	if u == nil {
		return "", errors.New("not found")
	}
	return s.issueToken(u)
}

// Calls returns the request paths received so far, in order.
func (s *Server) Calls() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) ResetCalls() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls = nil
}

func (s *Server) lookup(email string) *account {
	s.lock.RLock()
	defer s.lock.RUnlock()
	id, ok := s.emailIDs[strings.ToLower(email)]
	if !ok {
		return nil
	}
	return s.accounts[id]
}

func (s *Server) loginHandler(adminOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			writeMessage(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		u := s.lookup(req.Email)
		if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil || (adminOnly && !u.Admin) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if !s.isActive(u) {
			writeMessage(w, http.StatusForbidden, "Account blocked")
			return
		}

		token, err := s.issueToken(u)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "Failed to issue token")
			return
		}

		key := "user"
		if adminOnly {
			key = "admin"
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token, key: s.view(u)})
	}
}

func (s *Server) verifyHandler() http.HandlerFunc {
	return s.requireToken(func(w http.ResponseWriter, u *account) {
		writeJSON(w, http.StatusOK, map[string]any{"user": s.view(u)})
	})
}

func (s *Server) adminVerifyHandler() http.HandlerFunc {
	return s.requireToken(func(w http.ResponseWriter, u *account) {
		if !u.Admin {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"isAdmin": true, "admin": s.view(u)})
	})
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.accountFromToken(bearer(r))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		active := s.isActive(u)
		s.lock.RLock()
		forbid := s.forbidBlocked
		s.lock.RUnlock()
		if !active && forbid {
			writeMessage(w, http.StatusForbidden, "Account blocked")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"isActive": active})
	}
}

func (s *Server) settingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.RLock()
		on := s.maintenanceMode
		s.lock.RUnlock()
		writeJSON(w, http.StatusOK, map[string]any{"maintenanceMode": on})
	}
}

// requireToken rejects missing or invalid tokens with 401 and blocked
// accounts with 403 before calling next.
func (s *Server) requireToken(next func(http.ResponseWriter, *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.accountFromToken(bearer(r))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if !s.isActive(u) {
			writeMessage(w, http.StatusForbidden, "Account blocked")
			return
		}
		next(w, u)
	}
}

func (s *Server) isActive(u *account) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return u.Active
}

func (s *Server) view(u *account) map[string]any {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return u.view()
}

func bearer(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
