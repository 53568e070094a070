package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the course endpoints.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	CacheResults *prometheus.CounterVec
}

// New creates and registers the course metrics.
func New() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mobile_gateway_course_requests_total",
			Help: "Total number of course endpoint requests",
		}, []string{"endpoint", "status"}),
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mobile_gateway_course_request_duration_seconds",
			Help:    "Latency of course endpoint requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CacheResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mobile_gateway_enrollment_cache_total",
			Help: "Enrollment cache lookups by result",
		}, []string{"result"}),
	}
}
