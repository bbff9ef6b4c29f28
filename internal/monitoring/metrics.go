// Package monitoring records per-stage timings and row counts for a pipeline
// run and mirrors them into a Prometheus registry.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics represents the metrics of a single pipeline stage.
type OperationMetrics struct {
	Duration      time.Duration `json:"duration"`
	RowsProcessed int64         `json:"rows_processed"`
	Operation     string        `json:"operation"`
	Failed        bool          `json:"failed"`
}

// MetricsCollector collects and stores stage metrics. A nil collector is
// valid and records nothing.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool

	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector with its own registry.
func NewMetricsCollector(enabled bool) *MetricsCollector {
	mc := &MetricsCollector{
		metrics:  make([]OperationMetrics, 0),
		enabled:  enabled,
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "churnprep",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churnprep",
			Name:      "stage_rows_total",
			Help:      "Rows produced by each pipeline stage.",
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churnprep",
			Name:      "stage_failures_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
	}
	mc.registry.MustRegister(mc.duration, mc.rows, mc.failures)
	return mc
}

// IsEnabled returns whether metrics collection is enabled.
func (mc *MetricsCollector) IsEnabled() bool {
	if mc == nil {
		return false
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.enabled
}

// Record stores the outcome of a stage that already ran.
func (mc *MetricsCollector) Record(operation string, duration time.Duration, rows int) {
	mc.store(OperationMetrics{
		Duration:      duration,
		RowsProcessed: int64(rows),
		Operation:     operation,
	})
}

// RecordOperation runs fn and records its duration and the rows it reports.
func (mc *MetricsCollector) RecordOperation(operation string, fn func() (int, error)) error {
	if !mc.IsEnabled() {
		_, err := fn()
		return err
	}

	start := time.Now()
	rows, err := fn()
	mc.store(OperationMetrics{
		Duration:      time.Since(start),
		RowsProcessed: int64(rows),
		Operation:     operation,
		Failed:        err != nil,
	})
	return err
}

func (mc *MetricsCollector) store(m OperationMetrics) {
	if !mc.IsEnabled() {
		return
	}

	mc.duration.WithLabelValues(m.Operation).Observe(m.Duration.Seconds())
	if m.Failed {
		mc.failures.WithLabelValues(m.Operation).Inc()
	} else {
		mc.rows.WithLabelValues(m.Operation).Add(float64(m.RowsProcessed))
	}

	mc.mu.Lock()
	mc.metrics = append(mc.metrics, m)
	mc.mu.Unlock()
}

// GetMetrics returns a copy of all collected metrics.
func (mc *MetricsCollector) GetMetrics() []OperationMetrics {
	if mc == nil {
		return nil
	}
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make([]OperationMetrics, len(mc.metrics))
	copy(result, mc.metrics)
	return result
}

// Registry exposes the Prometheus registry holding the stage metrics.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (mc *MetricsCollector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, mc.registry)
}

// GetSummary returns a summary of collected metrics.
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	metrics := mc.GetMetrics()
	if len(metrics) == 0 {
		return MetricsSummary{}
	}

	var totalDuration time.Duration
	var totalRows int64
	operationCounts := make(map[string]int)

	for _, metric := range metrics {
		totalDuration += metric.Duration
		totalRows += metric.RowsProcessed
		operationCounts[metric.Operation]++
	}

	return MetricsSummary{
		TotalOperations: len(metrics),
		TotalDuration:   totalDuration,
		TotalRows:       totalRows,
		OperationCounts: operationCounts,
		AverageDuration: totalDuration / time.Duration(len(metrics)),
	}
}

// MetricsSummary provides aggregate statistics for collected metrics.
type MetricsSummary struct {
	TotalOperations int            `json:"total_operations"`
	TotalDuration   time.Duration  `json:"total_duration"`
	TotalRows       int64          `json:"total_rows"`
	OperationCounts map[string]int `json:"operation_counts"`
	AverageDuration time.Duration  `json:"average_duration"`
}
