package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lecturehub/apiserver/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the Prometheus registry of the API server.
type Metrics struct {
	registry             *prometheus.Registry
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	lectureOperations    *prometheus.CounterVec
	assetCleanupFailures *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_server_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_server_requests_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		lectureOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lecture_operations_total",
				Help: "Lecture lifecycle operations by outcome",
			},
			[]string{"op", "result"},
		),
		assetCleanupFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "asset_cleanup_failures_total",
				Help: "Video assets that could not be deleted from object storage",
			},
			[]string{"reason"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.lectureOperations,
		m.assetCleanupFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latencies per chi route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method":      r.Method,
			"route":       logging.RoutePattern(r),
			"status_code": strconv.Itoa(status),
		}
		m.httpRequestsTotal.With(labels).Inc()
		m.httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}

// LectureOperation counts one lifecycle operation.
func (m *Metrics) LectureOperation(op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.lectureOperations.WithLabelValues(op, result).Inc()
}

// AssetCleanupFailed counts a best-effort asset deletion that failed.
func (m *Metrics) AssetCleanupFailed(reason string) {
	m.assetCleanupFailures.WithLabelValues(reason).Inc()
}
