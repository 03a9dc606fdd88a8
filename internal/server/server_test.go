package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lecturehub/apiserver/config"
	"github.com/lecturehub/apiserver/internal/auth"
	"github.com/lecturehub/apiserver/internal/logging"
	"github.com/lecturehub/apiserver/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(cfg config.Config) http.Handler {
	return NewRouter(cfg, Dependencies{
		Tokens:  auth.NewTokenIssuer("secret", time.Hour),
		Metrics: metrics.New(),
		Log:     logging.Discard(),
	})
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_BannerOutsideProduction(t *testing.T) {
	rec := serve(testRouter(config.Config{Env: config.EnvDev}), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lecture Management System API is running!")
}

func TestRouter_ProductionServesSPA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644))
	router := testRouter(config.Config{Env: config.EnvProduction, StaticDir: dir})

	rec := serve(router, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spa")

	rec = serve(router, http.MethodGet, "/profile")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spa")

	rec = serve(router, http.MethodGet, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "availableRoutes")
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := testRouter(config.Config{Env: config.EnvDev})

	rec := serve(router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_server_requests_total")
}

func TestRouter_LecturesRequireAuth(t *testing.T) {
	rec := serve(testRouter(config.Config{Env: config.EnvDev}), http.MethodGet, "/api/lectures")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_CORS(t *testing.T) {
	router := testRouter(config.Config{Env: config.EnvDev})

	req := httptest.NewRequest(http.MethodOptions, "/api/lectures", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
