package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── API ─────────────────────────────────────────────────────────────────────

	APITriggersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "api",
		Name:      "triggers_created_total",
		Help:      "Total workflow triggers created through the API.",
	}, []string{"trigger_type"})

	// ─── Graph engine ────────────────────────────────────────────────────────────

	GraphAnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "graph",
		Name:      "analyses_total",
		Help:      "Total graph analyses served, labelled by cache outcome.",
	}, []string{"source"})

	GraphAnalysisDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "taskgraph",
		Subsystem: "graph",
		Name:      "analysis_duration_seconds",
		Help:      "Wall-clock time to build and analyze one snapshot.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	GraphCyclesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "graph",
		Name:      "cycles_detected_total",
		Help:      "Total analyses that reported at least one dependency cycle.",
	})

	// ─── Trigger orchestrator ────────────────────────────────────────────────────

	TriggerExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "trigger",
		Name:      "executions_total",
		Help:      "Total trigger executions, labelled by trigger_type and outcome status.",
	}, []string{"trigger_type", "status"})

	TriggerExecutionDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskgraph",
		Subsystem: "trigger",
		Name:      "execution_duration_seconds",
		Help:      "End-to-end trigger execution time in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
	}, []string{"trigger_type"})

	TriggerRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "trigger",
		Name:      "retries_total",
		Help:      "Total explicit retry requests accepted.",
	}, []string{"trigger_type"})

	ScheduledJobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskgraph",
		Subsystem: "trigger",
		Name:      "scheduled_jobs_active",
		Help:      "Recurring jobs currently registered with the cron runner.",
	})

	ScheduledFiringsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "trigger",
		Name:      "scheduled_firings_total",
		Help:      "Total scheduled-trigger firings, labelled by result (fired, exhausted, error).",
	}, []string{"result"})

	// ─── Reconciler ──────────────────────────────────────────────────────────────

	ReconcilerSweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "reconciler",
		Name:      "sweeps_total",
		Help:      "Total pending-trigger sweeps performed.",
	})

	ReconcilerDispatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "reconciler",
		Name:      "dispatched_total",
		Help:      "Total pending triggers handed to the orchestrator by the sweep.",
	})

	ReconcilerSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskgraph",
		Subsystem: "reconciler",
		Name:      "skipped_total",
		Help:      "Total pending triggers skipped in a sweep, labelled by reason (not_ready, rate_limited, exhausted).",
	}, []string{"reason"})
)
