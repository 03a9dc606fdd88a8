package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const apiPrefix = "/api"

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Banner describes the API at "/" outside production.
func Banner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BannerResponse{
		Message: "Lecture Management System API is running!",
		Routes: map[string]string{
			"auth":     "/api/auth",
			"lectures": "/api/lectures",
			"users":    "/api/users",
			"health":   "/healthz",
			"metrics":  "/metrics",
		},
	})
}

type BannerResponse struct {
	Message string            `json:"message"`
	Routes  map[string]string `json:"routes"`
}

// RouteNotFoundResponse lists the API surface for unknown /api routes.
type RouteNotFoundResponse struct {
	Message         string              `json:"message"`
	AvailableRoutes map[string][]string `json:"availableRoutes"`
}

var availableRoutes = map[string][]string{
	"auth": {"/api/auth/register [POST]", "/api/auth/login [POST]"},
	"lectures": {
		"/api/lectures [GET, POST]",
		"/api/lectures/:id [GET, PUT, DELETE]",
	},
	"users": {
		"/api/users/profile [GET, PUT]",
		"/api/users/change-password [PUT]",
		"/api/users/reset-password [POST]",
	},
}

// NotFound answers unknown routes. API paths get the route catalogue; other
// paths get the SPA shell when staticDir is set, else a plain 404.
func NotFound(staticDir string) http.HandlerFunc {
	var spa http.Handler
	if staticDir != "" {
		spa = SPA(staticDir)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			writeJSON(w, http.StatusNotFound, RouteNotFoundResponse{
				Message:         "Cannot " + r.Method + " " + r.URL.RequestURI(),
				AvailableRoutes: availableRoutes,
			})
			return
		}
		if spa != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
			spa.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusNotFound, "Route not found")
	}
}

// MethodNotAllowed keeps chi's 405s in the same JSON shape as 404s.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if isAPIPath(r.URL.Path) {
		writeJSON(w, http.StatusNotFound, RouteNotFoundResponse{
			Message:         "Cannot " + r.Method + " " + r.URL.RequestURI(),
			AvailableRoutes: availableRoutes,
		})
		return
	}
	writeError(w, http.StatusNotFound, "Route not found")
}

// SPA serves files from dir and falls back to index.html for client routes.
func SPA(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if name != "/" {
			if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		if _, err := os.Stat(index); err != nil {
			writeError(w, http.StatusNotFound, "Route not found")
			return
		}
		http.ServeFile(w, r, index)
	})
}

func isAPIPath(p string) bool {
	return p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/")
}
