package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Stripe webhook deliveries by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	streamGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_grants_total",
			Help: "Stream access decisions by result",
		},
		[]string{"result"},
	)
)

// TrackWebhook records one webhook delivery outcome.
func TrackWebhook(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// TrackStreamGrant records one access-gate decision, "granted" or the
// denial reason.
func TrackStreamGrant(result string) {
	streamGrants.WithLabelValues(result).Inc()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request counts and latency per route template. The
// route template keeps label cardinality bounded regardless of path
// parameters.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequests.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}
