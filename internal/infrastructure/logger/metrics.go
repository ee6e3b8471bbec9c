package logger

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zonesync"

var (
	registry = prometheus.NewRegistry()

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Provider operations by name and result",
		},
		[]string{"operation", "result"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of provider operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	roundsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Reconciliation rounds started",
		},
	)
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Reconciliation runs by outcome",
		},
		[]string{"outcome"},
	)
	lastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		},
	)
)

func init() {
	registry.MustRegister(operationsTotal, operationDuration, roundsTotal, runsTotal, lastRunTimestamp)
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func RecordOperation(operation string, err error, duration time.Duration) {
	operationsTotal.WithLabelValues(operation, result(err)).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordRound() {
	roundsTotal.Inc()
}

func RecordRun(outcome string) {
	runsTotal.WithLabelValues(outcome).Inc()
	lastRunTimestamp.SetToCurrentTime()
}

// Registry exposes the metrics registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// WriteMetrics dumps the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}

func TimedOperation(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	log := FromContext(ctx).With("operation", operation)
	log.Debug("starting operation")

	err := fn()
	duration := time.Since(start)

	RecordOperation(operation, err, duration)

	if err != nil {
		log.Error("operation failed", "error", err, "duration", duration)
	} else {
		log.Debug("operation completed", "duration", duration)
	}

	return err
}

func ResetMetrics() {
	operationsTotal.Reset()
	operationDuration.Reset()
	runsTotal.Reset()
}
