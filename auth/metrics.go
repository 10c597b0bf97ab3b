package auth

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrillway_auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	refreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thrillway_auth_refreshes_total",
			Help: "Total number of refresh-token rotations.",
		},
		[]string{"result"},
	)

	sessionEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "thrillway_auth_session_evictions_total",
			Help: "Session records evicted by the per-account cap.",
		},
	)
)

// RegisterMetrics registers the auth metrics with the default registry.
func RegisterMetrics() {
	prometheus.MustRegister(loginsTotal, refreshesTotal, sessionEvictionsTotal)
}

// MetricsHandler exposes the default prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

const (
	metricResultSuccess = "success"
	metricResultFailure = "failure"
)
