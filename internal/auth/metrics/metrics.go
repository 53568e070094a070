package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the auth flow.
type Metrics struct {
	CodesIssued        prometheus.Counter
	CodeRetries        prometheus.Counter
	Exchanges          *prometheus.CounterVec
	ExchangeDuration   prometheus.Histogram
	LoginsCompleted    *prometheus.CounterVec
	DeeplinkRedirects  prometheus.Counter
}

// New creates and registers the auth metrics.
func New() *Metrics {
	return &Metrics{
		CodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mobile_gateway_auth_codes_issued_total",
			Help: "Total number of mobile authorization codes issued",
		}),
		CodeRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mobile_gateway_auth_code_retries_total",
			Help: "Total number of code generation retries after uniqueness collisions",
		}),
		Exchanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mobile_gateway_code_exchanges_total",
			Help: "Total number of authorization code exchange attempts",
		}, []string{"status"}),
		ExchangeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mobile_gateway_code_exchange_duration_seconds",
			Help:    "Latency of the authorization code exchange endpoint",
			Buckets: prometheus.DefBuckets,
		}),
		LoginsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mobile_gateway_logins_completed_total",
			Help: "Total number of completed federated logins",
		}, []string{"backend", "outcome"}),
		DeeplinkRedirects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mobile_gateway_deeplink_redirects_total",
			Help: "Total number of completions redirected to the mobile deep link",
		}),
	}
}
