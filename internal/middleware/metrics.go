package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "weekly_report",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weekly_report",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route, method and status",
		},
		[]string{"method", "route", "status"},
	)

	reportTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "weekly_report",
			Name:      "report_transitions_total",
			Help:      "Weekly report state transitions",
		},
		[]string{"transition"},
	)
)

// CountReportTransition bumps the workflow transition counter. Handlers
// call it after a successful submit, reopen or lock.
func CountReportTransition(transition string) {
	reportTransitions.WithLabelValues(transition).Inc()
}

// Metrics records per-request latency and volume. Route templates keep
// the label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		requestDuration.WithLabelValues(c.Request.Method, route, status).
			Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
