package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/jrsteele09/go-portal-session/principal"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"

	pageIndex       = "index.html"
	pageSignIn      = "signin.html"
	pageAdminLogin  = "admin_login.html"
	pageDashboard   = "dashboard.html"
	pageAdmin       = "admin.html"
	pageLoading     = "loading.html"
	pageMaintenance = "maintenance.html"
)

var pageNames = []string{pageIndex, pageSignIn, pageAdminLogin, pageDashboard, pageAdmin, pageLoading, pageMaintenance}

// PageData is the template model shared by every page.
type PageData struct {
	AppName  string
	User     *principal.Principal
	Role     principal.Role
	Error    string
	Notice   string
	Email    string // Preserve email on error
	ReturnTo string
}

type pages struct {
	byName map[string]*template.Template
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout.
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).ParseFS(TemplateFilesFS(), "layout.html", name)
}

func parsePages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, err
		}
		p.byName[name] = tmpl
	}
	return p, nil
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data PageData) {
	tmpl, ok := s.pages.byName[name]
	if !ok {
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}
	data.AppName = s.appName

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.Err(err).Str("page", name).Msg("Failed to render template")
	}
}

// renderLoading is the neutral placeholder shown while the session boots.
func (s *Server) renderLoading(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, http.StatusOK, pageLoading, PageData{})
}

func (s *Server) renderMaintenance(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "120")
	s.render(w, http.StatusServiceUnavailable, pageMaintenance, PageData{})
}
