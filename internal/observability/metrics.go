package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_http_requests_total",
			Help: "Total number of HTTP requests processed by the messaging service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messaging_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "messaging_ws_active_connections",
			Help: "Number of active websocket subscriptions.",
		},
		[]string{"table"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"table", "event"},
	)
	publishErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_publish_errors_total",
			Help: "Total number of broker publish errors.",
		},
		[]string{"stream"},
	)
	clientFetchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_client_fetch_failures_total",
			Help: "Read-path fetches that fell back to an empty result.",
		},
		[]string{"resource"},
	)
	clientMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_client_mutations_total",
			Help: "User-initiated mutations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	clientPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_client_polls_total",
			Help: "Background refreshes by resource.",
		},
		[]string{"resource"},
	)
	clientTelemetryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_client_telemetry_failures_total",
			Help: "Swallowed delivery and interaction tracking failures.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		publishErrorsTotal,
		clientFetchFailuresTotal,
		clientMutationsTotal,
		clientPollsTotal,
		clientTelemetryFailuresTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler serves the default registry.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func IncWSActive(table string) {
	wsActiveConnections.WithLabelValues(table).Inc()
}

func DecWSActive(table string) {
	wsActiveConnections.WithLabelValues(table).Dec()
}

func IncWSEvent(table, event string) {
	wsEventsTotal.WithLabelValues(table, event).Inc()
}

func IncPublishError(stream string) {
	publishErrorsTotal.WithLabelValues(stream).Inc()
}

func IncFetchFailure(resource string) {
	clientFetchFailuresTotal.WithLabelValues(resource).Inc()
}

func ObserveMutation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	clientMutationsTotal.WithLabelValues(operation, outcome).Inc()
}

func IncPoll(resource string) {
	clientPollsTotal.WithLabelValues(resource).Inc()
}

func IncTelemetryFailure(kind string) {
	clientTelemetryFailuresTotal.WithLabelValues(kind).Inc()
}
