package classify

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/models"
	"github.com/synod-io/synod/internal/taxonomy"
)

func testSnapshot() *models.GlobalContext {
	return &models.GlobalContext{
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Logs: map[string]string{
			"namenode":  "WARN heartbeat expired for datanode1\nERROR BlockMissingException",
			"datanode1": "ERROR shutting down",
		},
		Metrics: map[string]models.NodeMetrics{
			"namenode": {
				Status: "ok",
				Metrics: map[string]models.Metric{
					"dead_datanodes": {Name: "Dead DataNodes", Value: 1, Raw: 1, Status: "abnormal"},
				},
			},
		},
		ClusterState: models.ClusterState{
			DataNodeCount: models.DataNodeCount{Live: 1, Dead: 1, Total: 2},
			HDFSStatus:    "degraded",
		},
	}
}

func mockClassifier(steps ...gateway.ScenarioStep) *Classifier {
	return New(gateway.NewMockFromScenario(&gateway.Scenario{
		Name:  "classify-test",
		Steps: steps,
	}), nil)
}

func TestClassify_ParsesModelOutput(t *testing.T) {
	c := mockClassifier(gateway.ScenarioStep{
		Role: "classifier",
		Text: `{"fault_type": "datanode_down", "confidence": 0.92, "category": "hdfs", "related_faults": ["under_replicated_blocks"], "reasoning": "dead datanode count is 1"}`,
	})

	result := c.Classify(context.Background(), testSnapshot(), "writes are failing")
	assert.Equal(t, "datanode_down", result.FaultType)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, "hdfs", result.Category)
	assert.Equal(t, []string{"under_replicated_blocks"}, result.RelatedFaults)
}

func TestClassify_Deterministic(t *testing.T) {
	text := `{"fault_type": "namenode_safemode", "confidence": 0.8}`

	var results []*models.ClassificationResult
	for i := 0; i < 2; i++ {
		c := mockClassifier(gateway.ScenarioStep{Role: "classifier", Text: text})
		results = append(results, c.Classify(context.Background(), testSnapshot(), "query"))
	}
	assert.Equal(t, results[0], results[1])
}

func TestClassify_BackfillsCategoryFromLibrary(t *testing.T) {
	c := mockClassifier(gateway.ScenarioStep{
		Role: "classifier",
		Text: `{"fault_type": "yarn_nodemanager_down", "confidence": 0.7}`,
	})

	result := c.Classify(context.Background(), testSnapshot(), "")
	assert.Equal(t, taxonomy.CategoryYARN, result.Category)
}

func TestClassify_FencedOutput(t *testing.T) {
	c := mockClassifier(gateway.ScenarioStep{
		Role: "classifier",
		Text: "```json\n{\"fault_type\": \"cluster_id_mismatch\", \"confidence\": 0.85}\n```",
	})

	result := c.Classify(context.Background(), testSnapshot(), "")
	assert.Equal(t, "cluster_id_mismatch", result.FaultType)
}

func TestClassify_ConfidenceClamped(t *testing.T) {
	c := mockClassifier(gateway.ScenarioStep{
		Role: "classifier",
		Text: `{"fault_type": "datanode_down", "confidence": 3.5}`,
	})

	result := c.Classify(context.Background(), testSnapshot(), "")
	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassify_MissingConfidenceDefaults(t *testing.T) {
	c := mockClassifier(gateway.ScenarioStep{
		Role: "classifier",
		Text: `{"fault_type": "datanode_down"}`,
	})

	result := c.Classify(context.Background(), testSnapshot(), "")
	assert.Equal(t, 0.5, result.Confidence)
}

func TestClassify_UnparseableDegradesToUnknown(t *testing.T) {
	c := mockClassifier(gateway.ScenarioStep{
		Role: "classifier",
		Text: "I am not sure what is wrong with this cluster.",
	})

	result := c.Classify(context.Background(), testSnapshot(), "")
	assert.Equal(t, "unknown", result.FaultType)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, taxonomy.CategoryGeneric, result.Category)
	assert.NotEmpty(t, result.Reasoning)
}

func TestClassify_MissingFaultTypeDegradesToUnknown(t *testing.T) {
	c := mockClassifier(gateway.ScenarioStep{
		Role: "classifier",
		Text: `{"confidence": 0.9, "category": "hdfs"}`,
	})

	result := c.Classify(context.Background(), testSnapshot(), "")
	assert.Equal(t, "unknown", result.FaultType)
}

func TestClassify_GatewayErrorDegradesToUnknown(t *testing.T) {
	c := mockClassifier(gateway.ScenarioStep{
		Role:  "classifier",
		Error: "connection reset",
	})

	result := c.Classify(context.Background(), testSnapshot(), "")
	require.NotNil(t, result)
	assert.Equal(t, "unknown", result.FaultType)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Reasoning, "connection reset")
}

func TestTail_CutsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("数据节点心跳超时，", 400)
	require.Greater(t, len(long), logPreviewBytes)

	// Every cut length must yield valid UTF-8, whatever byte it lands on.
	for n := 1; n <= 32; n++ {
		got := tail(long, n)
		assert.True(t, utf8.ValidString(got), "n=%d produced invalid UTF-8", n)
		assert.True(t, strings.HasPrefix(got, "..."))
	}

	assert.Equal(t, "short", tail("short", 100))
}

func TestBuildPrompt_ValidUTF8WithChineseLogs(t *testing.T) {
	snapshot := testSnapshot()
	snapshot.Logs["namenode"] = strings.Repeat("错误：数据节点 datanode1 心跳过期。", 200)

	prompt := buildPrompt(snapshot, "集群写入失败")
	assert.True(t, utf8.ValidString(prompt))
}

func TestBuildPrompt_DeterministicNodeOrder(t *testing.T) {
	snapshot := testSnapshot()
	a := buildPrompt(snapshot, "query")
	b := buildPrompt(snapshot, "query")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "datanode1")
	assert.Contains(t, a, "User report: query")
}
