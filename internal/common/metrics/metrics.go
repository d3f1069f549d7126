// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_submissions_total",
			Help: "Total number of assessment submissions by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "assessment_analysis_duration_seconds",
			Help: "Duration of the analysis call in seconds",
		},
	)

	StepValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_step_validation_failures_total",
			Help: "Step validation failures by step number",
		},
		[]string{"step"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_notifications_failed_total",
			Help: "Best-effort notification sink failures",
		},
		[]string{"sink"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_report_exports_total",
			Help: "Report export attempts by outcome",
		},
		[]string{"outcome"},
	)

	ProgressStoreFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_progress_store_failures_total",
			Help: "Silent progress persistence failures",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assessment_active_sessions",
			Help: "Number of live wizard sessions",
		},
	)
)
