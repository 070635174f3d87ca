package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "schoolfin_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	assignBulkTotal   *prometheus.CounterVec
	assignBulkLatency *prometheus.HistogramVec

	assignStudentTotal *prometheus.CounterVec

	duplicateSkippedTotal prometheus.Counter

	reconcilePreviewTotal   *prometheus.CounterVec
	reconcilePreviewLatency *prometheus.HistogramVec
	reconcileApplyTotal     *prometheus.CounterVec
	reconcileApplyLatency   *prometheus.HistogramVec

	assignmentExportTotal   *prometheus.CounterVec
	assignmentExportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		assignBulkTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "assign_bulk_total",
				Help: "Total bulk assignment runs by result",
			},
			[]string{"result"},
		)
		assignBulkLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "assign_bulk_latency_seconds",
				Help:    "Bulk assignment latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		assignStudentTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "assign_student_total",
				Help: "Per-student assignment outcomes by result",
			},
			[]string{"result"},
		)

		duplicateSkippedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "assign_duplicates_skipped_total",
				Help: "Students skipped because an assignment already existed",
			},
		)

		reconcilePreviewTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_preview_total",
				Help: "Total reconciliation previews by result",
			},
			[]string{"result"},
		)
		reconcilePreviewLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reconcile_preview_latency_seconds",
				Help:    "Reconciliation preview latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		reconcileApplyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reconcile_apply_total",
				Help: "Total reconciliation applies by result",
			},
			[]string{"result"},
		)
		reconcileApplyLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reconcile_apply_latency_seconds",
				Help:    "Reconciliation apply latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		assignmentExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "assignment_export_total",
				Help: "Total assignment export operations by format and result",
			},
			[]string{"format", "result"},
		)
		assignmentExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "assignment_export_latency_seconds",
				Help:    "Assignment export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			assignBulkTotal,
			assignBulkLatency,
			assignStudentTotal,
			duplicateSkippedTotal,
			reconcilePreviewTotal,
			reconcilePreviewLatency,
			reconcileApplyTotal,
			reconcileApplyLatency,
			assignmentExportTotal,
			assignmentExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveAssignBulk records bulk assignment latency and result.
func ObserveAssignBulk(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if assignBulkTotal != nil {
		assignBulkTotal.WithLabelValues(result).Inc()
	}
	if assignBulkLatency != nil {
		assignBulkLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAssignStudent increments per-student assignment outcome counters.
func IncAssignStudent(result string) {
	if result == "" {
		result = resultSuccess
	}
	if assignStudentTotal != nil {
		assignStudentTotal.WithLabelValues(result).Inc()
	}
}

// AddDuplicatesSkipped increments the duplicate skip counter by count.
func AddDuplicatesSkipped(count int) {
	if count <= 0 {
		return
	}
	if duplicateSkippedTotal != nil {
		duplicateSkippedTotal.Add(float64(count))
	}
}

// ObserveReconcilePreview records preview latency and result.
func ObserveReconcilePreview(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reconcilePreviewTotal != nil {
		reconcilePreviewTotal.WithLabelValues(result).Inc()
	}
	if reconcilePreviewLatency != nil {
		reconcilePreviewLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReconcileApply records apply latency and result.
func ObserveReconcileApply(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reconcileApplyTotal != nil {
		reconcileApplyTotal.WithLabelValues(result).Inc()
	}
	if reconcileApplyLatency != nil {
		reconcileApplyLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveAssignmentExport records export latency and result.
func ObserveAssignmentExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if assignmentExportTotal != nil {
		assignmentExportTotal.WithLabelValues(format, result).Inc()
	}
	if assignmentExportLatency != nil {
		assignmentExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
