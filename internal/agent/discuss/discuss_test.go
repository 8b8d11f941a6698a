package discuss

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/models"
)

func testDiagnoses() []models.ExpertDiagnosis {
	return []models.ExpertDiagnosis{
		{
			ExpertName: "hdfs_expert",
			RootCause:  "datanode1 heartbeat lost",
			Evidence:   []string{"ERROR heartbeat expired"},
			FixSteps:   []string{"restart datanode1"},
			Confidence: 0.9,
		},
		{
			ExpertName: "network_expert",
			RootCause:  "no network issue found",
			Confidence: 0.6,
		},
	}
}

func testState() models.ClusterState {
	return models.ClusterState{
		DataNodeCount: models.DataNodeCount{Live: 1, Dead: 1, Total: 2},
		HDFSStatus:    "degraded",
	}
}

func mockModerator(steps ...gateway.ScenarioStep) *Moderator {
	return New(gateway.NewMockFromScenario(&gateway.Scenario{
		Name:  "discuss-test",
		Steps: steps,
	}), nil)
}

func TestDiscuss_ParsesFullResult(t *testing.T) {
	m := mockModerator(gateway.ScenarioStep{
		Role: "discussion",
		Text: `{"consensus": false, "final_root_cause": "datanode1 process died", "final_evidence": ["heartbeat expired"], "final_fix_steps": ["restart datanode1", "verify rejoin"], "confidence": 0.85, "conflicts": ["network expert saw nothing"], "compound_faults": ["under_replicated_blocks"], "expert_agreement": {"hdfs_expert": 0.9, "network_expert": 0.4}}`,
	})

	result := m.Discuss(context.Background(), "datanode_down", testDiagnoses(), testState())
	assert.False(t, result.Consensus)
	assert.Equal(t, "datanode1 process died", result.FinalRootCause)
	assert.Equal(t, []string{"heartbeat expired"}, result.FinalEvidence)
	assert.Len(t, result.FinalFixSteps, 2)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, []string{"network expert saw nothing"}, result.Conflicts)
	assert.Equal(t, []string{"under_replicated_blocks"}, result.CompoundFaults)
	assert.Equal(t, 0.9, result.ExpertAgreement["hdfs_expert"])
}

func TestDiscuss_BackfillsMissingFields(t *testing.T) {
	m := mockModerator(gateway.ScenarioStep{
		Role: "discussion",
		Text: `{"final_root_cause": "datanode offline"}`,
	})

	result := m.Discuss(context.Background(), "datanode_down", testDiagnoses(), testState())
	assert.True(t, result.Consensus, "missing consensus defaults to true")
	assert.Equal(t, "datanode offline", result.FinalRootCause)
	assert.Equal(t, backfillConfidence, result.Confidence)
	assert.Empty(t, result.Conflicts)
}

func TestDiscuss_EmptyRootCauseBackfilled(t *testing.T) {
	m := mockModerator(gateway.ScenarioStep{
		Role: "discussion",
		Text: `{"consensus": true, "confidence": 0.7}`,
	})

	result := m.Discuss(context.Background(), "datanode_down", testDiagnoses(), testState())
	assert.Equal(t, defaultRootCause, result.FinalRootCause)
}

func TestDiscuss_UnparseableYieldsSafeDefault(t *testing.T) {
	m := mockModerator(gateway.ScenarioStep{
		Role: "discussion",
		Text: "the experts mostly agree, I think",
	})

	result := m.Discuss(context.Background(), "datanode_down", testDiagnoses(), testState())
	require.NotNil(t, result)
	assert.True(t, result.Consensus)
	assert.Contains(t, result.FinalRootCause, "parse failed")
	assert.Equal(t, safeDefaultConfidence, result.Confidence)
}

func TestDiscuss_GatewayErrorYieldsSafeDefault(t *testing.T) {
	m := mockModerator(gateway.ScenarioStep{
		Role:  "discussion",
		Error: "model overloaded",
	})

	result := m.Discuss(context.Background(), "datanode_down", testDiagnoses(), testState())
	require.NotNil(t, result)
	assert.True(t, result.Consensus)
	assert.Contains(t, result.FinalRootCause, "model overloaded")
	assert.Equal(t, safeDefaultConfidence, result.Confidence)
}

func TestDiscuss_ConfidenceClamped(t *testing.T) {
	m := mockModerator(gateway.ScenarioStep{
		Role: "discussion",
		Text: `{"final_root_cause": "x", "confidence": -2}`,
	})

	result := m.Discuss(context.Background(), "datanode_down", testDiagnoses(), testState())
	assert.Equal(t, 0.0, result.Confidence)
}

func TestBuildPrompt_IncludesAllExperts(t *testing.T) {
	prompt := buildPrompt("datanode_down", testDiagnoses(), testState())
	assert.Contains(t, prompt, "hdfs_expert")
	assert.Contains(t, prompt, "network_expert")
	assert.Contains(t, prompt, "datanode1 heartbeat lost")
	assert.Contains(t, prompt, "1 live, 1 dead")
}
