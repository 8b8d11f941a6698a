// Package orchestrator drives the diagnosis pipeline as a linear state
// machine: collect context, classify, select experts, fan out, discuss,
// format. No state is re-entered; the only branch is the short-circuit
// failure when zero experts produce a usable diagnosis.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/synod-io/synod/internal/agent/classify"
	"github.com/synod-io/synod/internal/agent/discuss"
	"github.com/synod-io/synod/internal/agent/experts"
	"github.com/synod-io/synod/internal/audit"
	"github.com/synod-io/synod/internal/collector"
	"github.com/synod-io/synod/internal/config"
	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/metrics"
	"github.com/synod-io/synod/internal/models"
	"github.com/synod-io/synod/internal/taxonomy"
	"github.com/synod-io/synod/internal/tools"
)

// Orchestrator owns one diagnosis pipeline instance. It is safe for
// sequential reuse; concurrent Diagnose calls would share the audit
// session and are not supported.
type Orchestrator struct {
	collector  *collector.Collector
	gateway    gateway.Gateway
	registry   *tools.Registry
	selector   *taxonomy.Selector
	classifier *classify.Classifier
	moderator  *discuss.Moderator
	agentCfg   config.AgentConfig
	metrics    *metrics.Metrics
	audit      *audit.Logger
	sessionID  string
	logger     *logging.Logger
}

// Options wires an orchestrator.
type Options struct {
	// Collector produces the cluster snapshot. Required.
	Collector *collector.Collector

	// Gateway generates model completions for all agents. Required.
	Gateway gateway.Gateway

	// Registry is the full tool registry; experts receive subsets of it.
	Registry *tools.Registry

	// Agent carries the tool budget and expert timeout.
	Agent config.AgentConfig

	// Metrics receives pipeline instrumentation. May be nil.
	Metrics *metrics.Metrics

	// Audit receives the session event trail. May be nil.
	Audit *audit.Logger

	// SessionID identifies the diagnosis session. Empty generates one
	// per Diagnose call.
	SessionID string
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		collector:  opts.Collector,
		gateway:    opts.Gateway,
		registry:   opts.Registry,
		selector:   taxonomy.NewSelector(),
		classifier: classify.New(opts.Gateway, opts.Audit),
		moderator:  discuss.New(opts.Gateway, opts.Audit),
		agentCfg:   opts.Agent,
		metrics:    opts.Metrics,
		audit:      opts.Audit,
		sessionID:  opts.SessionID,
		logger:     logging.GetLogger("orchestrator"),
	}
}

// Diagnose runs the full pipeline for one user query. It always returns
// a report; Error is set only when every selected expert failed.
func (o *Orchestrator) Diagnose(ctx context.Context, userQuery string) *models.DiagnosisReport {
	start := time.Now()
	sessionID := o.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := o.logger.WithField("session_id", sessionID)

	o.audit.LogSessionStart(o.gateway.Name(), userQuery)
	defer o.audit.LogSessionEnd()

	// COLLECT_CONTEXT
	snapshot := o.collector.Collect(ctx)
	o.audit.LogContextCollected(len(snapshot.Logs), len(snapshot.Metrics), snapshot.ClusterState.HDFSStatus)

	// CLASSIFY
	classification := o.classifier.Classify(ctx, snapshot, userQuery)
	o.audit.LogClassification(classification.FaultType, classification.Category, classification.Confidence)

	// SELECT_EXPERTS
	expertNames := o.selector.Select(classification.FaultType, true)
	o.audit.LogExpertsSelected(expertNames)
	logger.InfoWithFields("experts selected",
		logging.Field("fault_type", classification.FaultType),
		logging.Field("experts", fmt.Sprintf("%v", expertNames)))

	relatedFaults := mergeRelated(classification.RelatedFaults,
		o.selector.IdentifyRelatedFaults(classification.FaultType, snapshot))

	input := &models.ExpertInput{
		FaultType:     classification.FaultType,
		RelatedFaults: relatedFaults,
		UserQuery:     userQuery,
		Context:       snapshot,
	}

	// FAN_OUT
	panel, buildMarkers := o.buildPanel(expertNames)
	diagnoses, failed := runParallel(ctx, panel, input, o.agentCfg.ExpertTimeout, o)
	failed = append(buildMarkers, failed...)
	for _, marker := range failed {
		if o.metrics != nil {
			o.metrics.ExpertFailures.WithLabelValues(marker.ExpertName).Inc()
		}
	}

	report := &models.DiagnosisReport{
		SessionID:       sessionID,
		Classification:  *classification,
		ExpertDiagnoses: diagnoses,
		FailedExperts:   failed,
		GlobalContext: models.ContextSummary{
			Timestamp:    snapshot.Timestamp,
			ClusterState: snapshot.ClusterState,
		},
	}

	if len(diagnoses) == 0 {
		// FAIL: the one hard failure mode.
		report.Error = fmt.Sprintf("all %d experts failed", len(expertNames))
		logger.ErrorWithFields("diagnosis failed",
			logging.Field("experts", len(expertNames)))
		o.finish(start, metrics.OutcomeError)
		return report
	}

	// DISCUSS
	report.Discussion = o.moderator.Discuss(ctx, classification.FaultType, diagnoses, snapshot.ClusterState)

	logger.InfoWithFields("diagnosis complete",
		logging.Field("fault_type", classification.FaultType),
		logging.Field("experts_ok", len(diagnoses)),
		logging.Field("experts_failed", len(failed)),
		logging.Field("confidence", report.Discussion.Confidence))
	o.finish(start, metrics.OutcomeOK)
	return report
}

// buildPanel instantiates the selected experts. A name that cannot be
// built (unknown expert) degrades to an error marker like a runtime
// failure would.
func (o *Orchestrator) buildPanel(names []string) ([]*experts.Expert, []models.ErrorMarker) {
	panel := make([]*experts.Expert, 0, len(names))
	var markers []models.ErrorMarker
	for _, name := range names {
		expert, err := experts.New(name, o.gateway, o.registry, o.agentCfg.MaxToolCalls, o.audit)
		if err != nil {
			o.logger.WarnWithFields("skipping expert",
				logging.Field("expert", name),
				logging.Field("error", err.Error()))
			markers = append(markers, models.ErrorMarker{ExpertName: name, Error: err.Error()})
			continue
		}
		panel = append(panel, expert)
	}
	return panel, markers
}

func (o *Orchestrator) finish(start time.Time, outcome string) {
	elapsed := time.Since(start)
	if o.metrics != nil {
		o.metrics.DiagnosesTotal.WithLabelValues(outcome).Inc()
		o.metrics.DiagnosisDuration.Observe(elapsed.Seconds())
	}
	o.audit.LogPipelineComplete(elapsed, outcome)
}

// mergeRelated unions the classifier's related faults with the
// selector's, preserving order and dropping duplicates.
func mergeRelated(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, fault := range list {
			if seen[fault] {
				continue
			}
			seen[fault] = true
			out = append(out, fault)
		}
	}
	return out
}
