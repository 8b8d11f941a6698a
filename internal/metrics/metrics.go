// Package metrics holds Prometheus instrumentation for the diagnosis
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for pipeline observability.
type Metrics struct {
	DiagnosesTotal    *prometheus.CounterVec // Completed diagnoses by outcome
	DiagnosisDuration prometheus.Histogram   // End-to-end diagnosis latency
	ModelRequests     *prometheus.CounterVec // Gateway requests by role and outcome
	ToolCalls         *prometheus.CounterVec // Tool executions by tool and outcome
	ExpertFailures    *prometheus.CounterVec // Failed expert invocations by expert
}

// New creates Prometheus metrics for one diagnosis engine instance.
// The registerer parameter allows flexible registration (global registry,
// test registry). The clusterName parameter enables multi-cluster metric
// tracking via ConstLabels.
func New(reg prometheus.Registerer, clusterName string) *Metrics {
	constLabels := prometheus.Labels{"cluster": clusterName}

	diagnosesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "synod_diagnoses_total",
		Help:        "Total number of completed diagnoses by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	diagnosisDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "synod_diagnosis_duration_seconds",
		Help:        "End-to-end diagnosis latency in seconds",
		ConstLabels: constLabels,
		Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	modelRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "synod_model_requests_total",
		Help:        "Total number of model gateway requests by role and outcome",
		ConstLabels: constLabels,
	}, []string{"role", "outcome"})

	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "synod_tool_calls_total",
		Help:        "Total number of tool executions by tool and outcome",
		ConstLabels: constLabels,
	}, []string{"tool", "outcome"})

	expertFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "synod_expert_failures_total",
		Help:        "Total number of failed expert invocations",
		ConstLabels: constLabels,
	}, []string{"expert"})

	reg.MustRegister(diagnosesTotal)
	reg.MustRegister(diagnosisDuration)
	reg.MustRegister(modelRequests)
	reg.MustRegister(toolCalls)
	reg.MustRegister(expertFailures)

	return &Metrics{
		DiagnosesTotal:    diagnosesTotal,
		DiagnosisDuration: diagnosisDuration,
		ModelRequests:     modelRequests,
		ToolCalls:         toolCalls,
		ExpertFailures:    expertFailures,
	}
}

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
