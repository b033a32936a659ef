package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dwh_events_total",
			Help: "Total number of recorded warehouse events",
		},
		[]string{"event"},
	)

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dwh_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dwh_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	readingsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dwh_readings_ingested_total",
			Help: "Total number of readings stored",
		},
	)

	exportBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dwh_export_bytes",
			Help:    "Size of export payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"content_type"},
	)
)

// Config holds monitoring configuration
type Config struct {
	MetricsPath string
}

// Service provides monitoring functionality
type Service struct {
	config Config
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	return &Service{
		config: config,
	}
}

// MetricsPath is where Handler is mounted.
func (s *Service) MetricsPath() string {
	if s.config.MetricsPath == "" {
		return "/metrics"
	}
	return s.config.MetricsPath
}

// Handler exposes the registered metrics.
func (s *Service) Handler() http.Handler {
	return promhttp.Handler()
}

// RecordEvent counts a monitored event. Labels are logged, not exported.
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	eventsTotal.WithLabelValues(eventName).Inc()
	nuts.L.Infof("[Monitoring] Event %s recorded with labels: %v", eventName, labels)
}

// RecordReadings counts stored readings.
func (s *Service) RecordReadings(n int) {
	readingsIngested.Add(float64(n))
}

// RecordExport observes the size of an export payload.
func (s *Service) RecordExport(contentType string, size int) {
	exportBytes.WithLabelValues(contentType).Observe(float64(size))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency by route template.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
