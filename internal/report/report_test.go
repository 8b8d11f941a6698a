package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/synod-io/synod/internal/models"
)

func sampleReport() *models.DiagnosisReport {
	return &models.DiagnosisReport{
		Classification: models.ClassificationResult{
			FaultType:  "datanode_down",
			Confidence: 0.92,
			Category:   "hdfs",
			Reasoning:  "dead datanode count is non-zero",
		},
		ExpertDiagnoses: []models.ExpertDiagnosis{
			{
				ExpertName: "hdfs_expert",
				RootCause:  "datanode1 process exited",
				Evidence:   []string{"heartbeat expired", "dead count went from 0 to 1"},
				FixSteps:   []string{"restart the datanode daemon"},
				Confidence: 0.85,
			},
			{
				ExpertName:    "network_expert",
				DiagnosisText: "No network issue found.\nThe switch links look healthy.",
			},
		},
		Discussion: &models.DiscussionResult{
			Consensus:      true,
			FinalRootCause: "datanode1 process exited",
			FinalEvidence:  []string{"heartbeat expired"},
			FinalFixSteps:  []string{"restart the datanode daemon"},
			Confidence:     0.9,
		},
		GlobalContext: models.ContextSummary{
			Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			ClusterState: models.ClusterState{
				HDFSStatus:    "degraded",
				DataNodeCount: models.DataNodeCount{Live: 2, Dead: 1, Total: 3},
			},
		},
	}
}

func TestFormat(t *testing.T) {
	out := Format(sampleReport())

	assert.Contains(t, out, "## Fault classification")
	assert.Contains(t, out, "**Fault type**: datanode_down")
	assert.Contains(t, out, "**Confidence**: 92.0%")
	assert.Contains(t, out, "**Category**: hdfs")

	assert.Contains(t, out, "### hdfs_expert")
	assert.Contains(t, out, "**Root cause**: datanode1 process exited")
	assert.Contains(t, out, "- heartbeat expired")

	// Prose diagnoses are rendered verbatim, not as structured fields.
	assert.Contains(t, out, "The switch links look healthy.")

	assert.Contains(t, out, "## Consensus")
	assert.Contains(t, out, "The experts agree.")
	assert.Contains(t, out, "**Overall confidence**: 90.0%")

	assert.Contains(t, out, "## Cluster snapshot")
	assert.Contains(t, out, "- DataNodes: 2 live, 1 dead")
	assert.Contains(t, out, "- HDFS status: degraded")
	assert.Contains(t, out, "- Collected: 2026-08-30 12:00:00")

	assert.NotContains(t, out, "## Diagnosis failed")
	assert.NotContains(t, out, "## Failed experts")
}

func TestFormat_Deterministic(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, Format(r), Format(r))
}

func TestFormat_Disagreement(t *testing.T) {
	r := sampleReport()
	r.Discussion.Consensus = false
	r.Discussion.Conflicts = []string{"hdfs blames the disk, network blames the switch"}

	out := Format(r)
	assert.Contains(t, out, "The experts disagree.")
	assert.Contains(t, out, "**Conflicts**:")
	assert.Contains(t, out, "- hdfs blames the disk, network blames the switch")
	assert.NotContains(t, out, "The experts agree.")
}

func TestFormat_FailedExperts(t *testing.T) {
	r := sampleReport()
	r.FailedExperts = []models.ErrorMarker{
		{ExpertName: "yarn_expert", Error: "tool call budget of 5 exceeded"},
	}

	out := Format(r)
	assert.Contains(t, out, "## Failed experts")
	assert.Contains(t, out, "- yarn_expert: tool call budget of 5 exceeded")
}

func TestFormat_PipelineFailure(t *testing.T) {
	r := &models.DiagnosisReport{
		Classification: models.ClassificationResult{
			FaultType:  "unknown",
			Confidence: 0,
			Category:   "generic",
		},
		Error: "all 1 experts failed",
		FailedExperts: []models.ErrorMarker{
			{ExpertName: "generic_expert", Error: "gateway unavailable"},
		},
	}

	out := Format(r)
	assert.Contains(t, out, "## Diagnosis failed")
	assert.Contains(t, out, "all 1 experts failed")
	assert.Contains(t, out, "**Confidence**: 0.0%")
	assert.NotContains(t, out, "## Consensus")
	assert.NotContains(t, out, "## Expert diagnoses")
	// Zero timestamp means no collection line.
	assert.NotContains(t, out, "- Collected:")
}
