package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealflow_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dealflow_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealflow_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	loginDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dealflow_login_duration_seconds",
		Help:    "Duration of authenticate calls including the simulated delay",
		Buckets: prometheus.DefBuckets,
	})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealflow_request_transitions_total",
		Help: "Lifecycle operations on deal requests by operation and result",
	}, []string{"operation", "result"})

	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dealflow_sessions_created_total",
		Help: "Sessions created by successful logins",
	})

	sessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealflow_sessions_ended_total",
		Help: "Sessions ended by logout or found expired on lookup",
	}, []string{"reason"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin records one authenticate call.
func ObserveLogin(result string, duration time.Duration) {
	loginAttempts.WithLabelValues(result).Inc()
	loginDuration.Observe(duration.Seconds())
}

// ObserveTransition counts a lifecycle operation (create, submit, decide, redecide).
func ObserveTransition(operation, result string) {
	transitions.WithLabelValues(operation, result).Inc()
}

// Session end reasons.
const (
	SessionLogout  = "logout"
	SessionExpired = "expired"
)

func SessionCreated() { sessionsCreated.Inc() }

// SessionEnded counts one session leaving the system for reason.
func SessionEnded(reason string) { sessionsEnded.WithLabelValues(reason).Inc() }

// Middleware records every request under its route template, not the raw path.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
