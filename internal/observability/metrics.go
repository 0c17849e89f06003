package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym",
		Subsystem: "repository",
		Name:      "operations_total",
		Help:      "Repository operations by operation name and outcome (ok, not_found, failure).",
	}, []string{"operation", "outcome"})

	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gym",
		Subsystem: "repository",
		Name:      "operation_duration_seconds",
		Help:      "Time spent in repository operations, including existence checks.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation"})

	batchRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym",
		Subsystem: "batch",
		Name:      "runs_total",
		Help:      "Batch runs by result (committed, commit_failed, connection_failed).",
	}, []string{"result"})

	eventPublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gym",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Change events that could not be handed to the publisher.",
	})
)

func init() {
	prometheus.MustRegister(operationCounter, operationDuration, batchRunCounter, eventPublishFailures)
}

// RecordOperation counts one repository operation and observes its latency.
func RecordOperation(operation, outcome string, elapsed time.Duration) {
	operationCounter.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordBatchRun counts one batch run.
func RecordBatchRun(result string) {
	batchRunCounter.WithLabelValues(result).Inc()
}

// RecordPublishFailure counts events that were dropped on the floor.
func RecordPublishFailure(n int) {
	eventPublishFailures.Add(float64(n))
}

// OperationCount exposes the counter value for tests in other packages.
func OperationCount(operation, outcome string) float64 {
	return counterValue(operationCounter.WithLabelValues(operation, outcome))
}

// BatchRunCount exposes the counter value for tests in other packages.
func BatchRunCount(result string) float64 {
	return counterValue(batchRunCounter.WithLabelValues(result))
}
