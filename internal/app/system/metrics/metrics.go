// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenderhub_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenderhub_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// DocumentsStored counts store attempts by result ("ok" or "error").
	DocumentsStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenderhub_documents_stored_total",
			Help: "Document store attempts by result.",
		},
		[]string{"result"},
	)

	// UploadCompensations counts batches rolled back after a failed store.
	UploadCompensations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenderhub_upload_compensations_total",
		Help: "Upload batches rolled back because one file failed to store.",
	})

	// CleanupFailures counts storage removals that failed, by phase.
	CleanupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenderhub_storage_cleanup_failures_total",
			Help: "Storage removals that failed and were left for the orphan sweeper.",
		},
		[]string{"phase"},
	)

	// OrphansResolved counts orphans removed by the sweeper.
	OrphansResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenderhub_orphans_resolved_total",
		Help: "Orphaned storage objects removed by the sweeper.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware records request count and latency. The route label is chi's
// matched pattern (e.g. /tenders/{id}) so ids do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
