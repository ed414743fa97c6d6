package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	initMu               sync.Mutex
	initialized          bool
	httpRequestsTotal    metric.Int64Counter
	httpRequestDuration  metric.Float64Histogram
	httpRequestsInFlight metric.Int64UpDownCounter
)

func initMetrics(ctx context.Context, meter metric.Meter) {
	if meter == nil {
		return
	}
	initMu.Lock()
	defer initMu.Unlock()
	if initialized {
		return
	}
	initialized = true
	log := logger.FromContext(ctx)
	var err error
	httpRequestsTotal, err = meter.Int64Counter(
		"dataworks_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		log.Error("Failed to create http requests total counter", "error", err)
	}
	httpRequestDuration, err = meter.Float64Histogram(
		"dataworks_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithExplicitBucketBoundaries(.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		log.Error("Failed to create http request duration histogram", "error", err)
	}
	httpRequestsInFlight, err = meter.Int64UpDownCounter(
		"dataworks_http_requests_in_flight",
		metric.WithDescription("Currently active HTTP requests"),
	)
	if err != nil {
		log.Error("Failed to create http requests in flight counter", "error", err)
	}
}

// ResetMetricsForTesting clears the instruments so a test can bind a new meter.
func ResetMetricsForTesting() {
	initMu.Lock()
	defer initMu.Unlock()
	initialized = false
	httpRequestsTotal = nil
	httpRequestDuration = nil
	httpRequestsInFlight = nil
}

// HTTPMetrics returns a Gin middleware that collects request metrics.
func HTTPMetrics(ctx context.Context, meter metric.Meter) gin.HandlerFunc {
	initMetrics(ctx, meter)
	return func(c *gin.Context) {
		if httpRequestsTotal == nil || httpRequestDuration == nil || httpRequestsInFlight == nil {
			c.Next()
			return
		}
		start := time.Now()
		httpRequestsInFlight.Add(c.Request.Context(), 1)
		defer httpRequestsInFlight.Add(c.Request.Context(), -1)
		c.Next()
		recordMetrics(c, start)
	}
}

func recordMetrics(c *gin.Context, start time.Time) {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	attrs := metric.WithAttributes(
		attribute.String("method", c.Request.Method),
		attribute.String("path", path),
		attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
	)
	httpRequestsTotal.Add(c.Request.Context(), 1, attrs)
	httpRequestDuration.Record(c.Request.Context(), time.Since(start).Seconds(), attrs)
}
