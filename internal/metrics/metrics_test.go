package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLectureOperation(t *testing.T) {
	m := New()

	m.LectureOperation("create", nil)
	m.LectureOperation("create", nil)
	m.LectureOperation("delete", errors.New("forbidden"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lectureOperations.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lectureOperations.WithLabelValues("delete", "error")))
}

func TestAssetCleanupFailed(t *testing.T) {
	m := New()
	m.AssetCleanupFailed("delete")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assetCleanupFailures.WithLabelValues("delete")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/api/lectures/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router.Handle("/metrics", m.Handler())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/lectures/3", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/lectures/{id}", "418")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_server_requests_total")
}
