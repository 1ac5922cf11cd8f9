package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-portal-session/internal/config"
	"github.com/jrsteele09/go-portal-session/maintenance"
	"github.com/jrsteele09/go-portal-session/principal"
	"github.com/jrsteele09/go-portal-session/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Sessions is the session surface the portal shell reads and drives.
// *session.Manager implements it.
type Sessions interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, email, password string) error
	AdminLogin(ctx context.Context, email, password string) error
	Logout()
}

// MaintenanceGate decides whether a request is replaced by the maintenance
// page. *maintenance.Gate implements it.
type MaintenanceGate interface {
	Blocks(role principal.Role, path string) bool
	Status() maintenance.Status
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	appName  string
	mux      *http.ServeMux
	routes   []string
	sessions Sessions
	gate     MaintenanceGate
	pages    *pages
}

func New(cfg config.EnvConfig, sessions Sessions, gate MaintenanceGate) (*Server, error) {
	if sessions == nil {
		return nil, pkgerrors.New("[Server New] sessions are required")
	}
	if gate == nil {
		return nil, pkgerrors.New("[Server New] maintenance gate is required")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s := &Server{
		env:      cfg.GetEnv(),
		appName:  cfg.GetAppName(),
		mux:      http.NewServeMux(),
		sessions: sessions,
		gate:     gate,
		pages:    pages,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func displayMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", displayMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", displayMethod(method), path, Red+error+ResetColor)
}
