// Package metrics provides Prometheus metrics for the drive server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irondrive_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "irondrive_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Filesystem operations
	fsOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irondrive_fs_operations_total",
			Help: "Total number of virtual filesystem operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Backend calls
	backendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irondrive_backend_calls_total",
			Help: "Total number of object store calls",
		},
		[]string{"backend", "operation", "status"},
	)

	backendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "irondrive_backend_call_duration_seconds",
			Help:    "Object store call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// Content transfer
	bytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "irondrive_content_bytes_uploaded_total",
			Help: "Total bytes accepted by uploads",
		},
	)

	bytesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "irondrive_content_bytes_downloaded_total",
			Help: "Total bytes streamed by downloads",
		},
	)
)

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordOperation counts a filesystem operation. Outcome is "ok" or an error class.
func RecordOperation(operation, outcome string) {
	fsOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordBackendCall records one object store call.
func RecordBackendCall(backend, operation string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	backendCallsTotal.WithLabelValues(backend, operation, status).Inc()
	backendCallDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

func AddBytesUploaded(n int64) {
	if n > 0 {
		bytesUploaded.Add(float64(n))
	}
}

func AddBytesDownloaded(n int64) {
	if n > 0 {
		bytesDownloaded.Add(float64(n))
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
