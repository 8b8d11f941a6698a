// Package models defines the data types exchanged between the diagnosis
// pipeline stages: the immutable cluster snapshot, per-agent results and
// the final report.
package models

import (
	"encoding/json"
	"time"
)

// Metric is a single monitoring value read from a node. Value carries the
// display form; Raw, when known, is the numeric reading used for state
// derivation.
type Metric struct {
	Name   string      `json:"name"`
	Value  interface{} `json:"value"`
	Raw    float64     `json:"raw_value,omitempty"`
	Status string      `json:"status,omitempty"`
}

// NodeMetrics holds the metrics collected from one node.
type NodeMetrics struct {
	// Status is "ok" or "error"; an error status means collection for this
	// node failed and Metrics is empty.
	Status  string            `json:"status"`
	Error   string            `json:"error,omitempty"`
	Metrics map[string]Metric `json:"metrics,omitempty"`
}

// DataNodeCount summarizes datanode liveness as reported by the namenode.
type DataNodeCount struct {
	Live  int `json:"live"`
	Dead  int `json:"dead"`
	Total int `json:"total"`
}

// StorageState holds HDFS capacity figures in bytes.
type StorageState struct {
	Total     float64 `json:"total"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

// ClusterState is derived from the collected metrics once per snapshot.
type ClusterState struct {
	DataNodeCount DataNodeCount `json:"datanode_count"`
	// HDFSStatus is "healthy", "degraded" or "unknown".
	HDFSStatus string       `json:"hdfs_status"`
	Storage    StorageState `json:"storage"`
}

// GlobalContext is the snapshot of cluster state taken once per diagnosis
// request. It is immutable after collection and shared read-only across
// all agents of that request.
type GlobalContext struct {
	Timestamp    time.Time              `json:"timestamp"`
	Logs         map[string]string      `json:"logs"`
	Metrics      map[string]NodeMetrics `json:"metrics"`
	ClusterState ClusterState           `json:"cluster_state"`
}

// ClassificationResult is the classifier agent's output.
type ClassificationResult struct {
	FaultType     string   `json:"fault_type"`
	Confidence    float64  `json:"confidence"`
	Category      string   `json:"category"`
	RelatedFaults []string `json:"related_faults,omitempty"`
	Reasoning     string   `json:"reasoning,omitempty"`
}

// ToolCallRequest is emitted by an agent instead of a final answer when it
// needs more data.
type ToolCallRequest struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// ToolCallResult pairs an executed tool call with its result. The list of
// results accumulated during one agent run is the only mutable state of
// that run, and is private to it.
type ToolCallResult struct {
	Tool   string                 `json:"tool"`
	Args   map[string]interface{} `json:"args"`
	Result interface{}            `json:"result"`
}

// ExpertDiagnosis is one expert agent's completed diagnosis. Experts that
// fail produce an ErrorMarker instead.
type ExpertDiagnosis struct {
	ExpertName         string   `json:"expert_name"`
	RootCause          string   `json:"root_cause"`
	Evidence           []string `json:"evidence"`
	FixSteps           []string `json:"fix_steps"`
	Confidence         float64  `json:"confidence"`
	Severity           string   `json:"severity,omitempty"`
	AffectedComponents []string `json:"affected_components,omitempty"`
	// DiagnosisText preserves the expert's full prose output.
	DiagnosisText string `json:"diagnosis_text,omitempty"`
}

// ErrorMarker records a failed expert invocation. It is excluded from the
// discussion input but kept in the report for transparency.
type ErrorMarker struct {
	ExpertName string `json:"expert_name"`
	Error      string `json:"error"`
}

// DiscussionResult is the consensus synthesis produced from all valid
// expert diagnoses.
type DiscussionResult struct {
	Consensus       bool               `json:"consensus"`
	FinalRootCause  string             `json:"final_root_cause"`
	FinalEvidence   []string           `json:"final_evidence"`
	FinalFixSteps   []string           `json:"final_fix_steps"`
	Confidence      float64            `json:"confidence"`
	Conflicts       []string           `json:"conflicts,omitempty"`
	CompoundFaults  []string           `json:"compound_faults,omitempty"`
	ExpertAgreement map[string]float64 `json:"expert_agreement,omitempty"`
}

// ContextSummary is the trimmed-down snapshot embedded in the final
// report; full logs and metrics are not repeated there.
type ContextSummary struct {
	Timestamp    time.Time    `json:"timestamp"`
	ClusterState ClusterState `json:"cluster_state"`
}

// DiagnosisReport is the terminal artifact of one orchestration run.
type DiagnosisReport struct {
	SessionID       string               `json:"session_id,omitempty"`
	Classification  ClassificationResult `json:"classification"`
	ExpertDiagnoses []ExpertDiagnosis    `json:"expert_diagnoses"`
	FailedExperts   []ErrorMarker        `json:"failed_experts,omitempty"`
	Discussion      *DiscussionResult    `json:"discussion,omitempty"`
	GlobalContext   ContextSummary       `json:"global_context"`
	// Error is set only when zero experts succeeded; in that case
	// Discussion is nil.
	Error string `json:"error,omitempty"`
}

// ToJSON renders the report as indented JSON.
func (r *DiagnosisReport) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExpertInput is the shared input handed to every selected expert. Each
// expert receives its own copy; ToolResults is the per-run accumulator
// and must never be shared across agents.
type ExpertInput struct {
	FaultType     string
	RelatedFaults []string
	UserQuery     string
	Context       *GlobalContext
	ToolResults   []ToolCallResult
}

// Clone returns a copy with a private ToolResults slice. The embedded
// GlobalContext pointer is shared deliberately: the snapshot is read-only.
func (in *ExpertInput) Clone() *ExpertInput {
	cp := *in
	cp.ToolResults = append([]ToolCallResult(nil), in.ToolResults...)
	return &cp
}
