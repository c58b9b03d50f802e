package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_messages_received_total",
			Help: "Broker messages accepted by an agent",
		},
		[]string{"agent", "topic"},
	)

	MessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_messages_dropped_total",
			Help: "Broker messages an agent discarded",
		},
		[]string{"agent", "reason"},
	)

	Publishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_publishes_total",
			Help: "Publish attempts by outcome",
		},
		[]string{"agent", "topic", "result"},
	)

	ViewEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restaurant_view_entries",
			Help: "Orders currently tracked in an agent's view",
		},
		[]string{"agent"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)
)

// PublishResult labels a publish outcome.
func PublishResult(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, http.StatusText(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(float64(time.Since(start).Milliseconds()))
	}
}
