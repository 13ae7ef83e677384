package data

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sheriff_backend_request_duration_seconds",
		Help:    "Latency of classification backend requests",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"backend"})

	backendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheriff_backend_error_count",
		Help: "Failed classification backend requests",
	}, []string{"backend"})

	backendBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sheriff_backend_breaker_state",
		Help: "Circuit breaker state per backend (0 closed, 1 half-open, 2 open)",
	}, []string{"backend"})

	platformErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheriff_platform_error_count",
		Help: "Failed chat platform calls",
	}, []string{"platform", "op"})
)
