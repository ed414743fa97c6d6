package task

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce      sync.Once
	metricsMu            sync.RWMutex
	taskInvocationsTotal metric.Int64Counter
	taskLatencySeconds   metric.Float64Histogram
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// InitMetrics registers OpenTelemetry instruments for task invocations.
func InitMetrics(meter metric.Meter) error {
	if meter == nil {
		return nil
	}
	var initErr error
	initMetricsOnce.Do(func() {
		counter, err := meter.Int64Counter(
			"dataworks_task_invocations_total",
			metric.WithDescription("Total task invocations grouped by status"),
		)
		if err != nil {
			initErr = err
			return
		}
		latency, err := meter.Float64Histogram(
			"dataworks_task_latency_seconds",
			metric.WithDescription("Task invocation latency in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErr = err
			return
		}
		metricsMu.Lock()
		taskInvocationsTotal = counter
		taskLatencySeconds = latency
		metricsMu.Unlock()
	})
	return initErr
}

// RecordInvocation records standard metrics for a task run.
func RecordInvocation(ctx context.Context, taskID, status string, duration time.Duration, errorCode string) {
	metricsMu.RLock()
	counter, latency := taskInvocationsTotal, taskLatencySeconds
	metricsMu.RUnlock()
	if counter != nil {
		attrs := []attribute.KeyValue{
			attribute.String("task_id", taskID),
			attribute.String("status", status),
		}
		if errorCode != "" {
			attrs = append(attrs, attribute.String("error_code", errorCode))
		}
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if latency != nil {
		latency.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("task_id", taskID),
			attribute.String("status", status),
		))
	}
}

// ResetMetricsForTesting unbinds the instruments so InitMetrics can run again.
func ResetMetricsForTesting() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	taskInvocationsTotal = nil
	taskLatencySeconds = nil
	initMetricsOnce = sync.Once{}
}
