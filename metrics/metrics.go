// Package metrics provides Prometheus metrics for the pharmacy API: the usual
// HTTP request counters plus gauges maintained by the batch expiry scan.
//
// All metrics are registered with the Prometheus default registry during
// package initialization and exposed on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)

	MedicineBatchesExpired = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "medicine_batches_expired",
			Help: "Batches whose expiry date has passed, per the last scan",
		},
	)

	MedicineBatchesExpiringSoon = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "medicine_batches_expiring_soon",
			Help: "Batches expiring within the warning window, per the last scan",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(MedicineBatchesExpired)
	prometheus.MustRegister(MedicineBatchesExpiringSoon)
}
