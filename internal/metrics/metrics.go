// Package metrics holds the Prometheus collectors of the application.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialnet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "socialnet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialnet",
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	socialMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "socialnet",
			Subsystem: "social",
			Name:      "mutations_total",
			Help:      "Follow, unfollow, like, unlike and post operations that succeeded.",
		},
		[]string{"action"},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, authAttempts, socialMutations)
}

// Login outcomes.
const (
	OutcomeSuccess            = "success"
	OutcomeUserNotFound       = "user_not_found"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeError              = "error"
)

func RecordHTTPRequest(method, path string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func RecordAuthAttempt(outcome string) {
	authAttempts.WithLabelValues(outcome).Inc()
}

func RecordMutation(action string) {
	socialMutations.WithLabelValues(action).Inc()
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
