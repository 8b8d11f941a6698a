package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject_Plain(t *testing.T) {
	obj, ok := ExtractObject(`{"fault_type": "datanode_down", "confidence": 0.9}`)
	require.True(t, ok)
	assert.Equal(t, "datanode_down", obj["fault_type"])
	assert.Equal(t, 0.9, obj["confidence"])
}

func TestExtractObject_CodeFences(t *testing.T) {
	cases := []string{
		"```json\n{\"fault_type\": \"namenode_down\"}\n```",
		"```\n{\"fault_type\": \"namenode_down\"}\n```",
		"  ```json\n{\"fault_type\": \"namenode_down\"}\n```  ",
	}
	for _, text := range cases {
		obj, ok := ExtractObject(text)
		require.True(t, ok, "input: %q", text)
		assert.Equal(t, "namenode_down", obj["fault_type"])
	}
}

func TestExtractObject_EmbeddedInProse(t *testing.T) {
	text := "Based on the logs, my answer is:\n" +
		`{"fault_type": "cluster_id_mismatch", "confidence": 0.8}` +
		"\nLet me know if you need more detail."

	obj, ok := ExtractObject(text)
	require.True(t, ok)
	assert.Equal(t, "cluster_id_mismatch", obj["fault_type"])
}

func TestExtractObject_NestedBraces(t *testing.T) {
	// The greedy match must span nested objects.
	text := `Result: {"consensus": true, "expert_agreement": {"hdfs_expert": 0.9}}`

	obj, ok := ExtractObject(text)
	require.True(t, ok)
	agreement, ok := obj["expert_agreement"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 0.9, agreement["hdfs_expert"])
}

func TestExtractObject_NoJSON(t *testing.T) {
	_, ok := ExtractObject("the cluster looks healthy to me")
	assert.False(t, ok)

	_, ok = ExtractObject("")
	assert.False(t, ok)

	_, ok = ExtractObject("{not valid json}")
	assert.False(t, ok)
}

func TestTryParseToolCall(t *testing.T) {
	call, ok := TryParseToolCall(`{"action": "call_tool", "tool": "get_node_log", "args": {"node_name": "namenode"}}`)
	require.True(t, ok)
	assert.Equal(t, "get_node_log", call.Tool)
	assert.Equal(t, "namenode", call.Args["node_name"])
}

func TestTryParseToolCall_MissingArgs(t *testing.T) {
	call, ok := TryParseToolCall(`{"action": "call_tool", "tool": "get_cluster_logs"}`)
	require.True(t, ok)
	assert.NotNil(t, call.Args)
	assert.Empty(t, call.Args)
}

func TestTryParseToolCall_ProseIsTerminal(t *testing.T) {
	// JSON surrounded by prose is a final answer, not a tool request.
	text := `I need more data: {"action": "call_tool", "tool": "get_node_log", "args": {}}`
	_, ok := TryParseToolCall(text)
	assert.False(t, ok)
}

func TestTryParseToolCall_WrongShape(t *testing.T) {
	_, ok := TryParseToolCall(`{"action": "answer", "tool": "get_node_log"}`)
	assert.False(t, ok)

	_, ok = TryParseToolCall(`{"action": "call_tool"}`)
	assert.False(t, ok)

	_, ok = TryParseToolCall(`{"fault_type": "datanode_down"}`)
	assert.False(t, ok)
}

func TestTryParseToolCall_FencedToolCall(t *testing.T) {
	text := "```json\n{\"action\": \"call_tool\", \"tool\": \"get_monitoring_metrics\", \"args\": {}}\n```"
	call, ok := TryParseToolCall(text)
	require.True(t, ok)
	assert.Equal(t, "get_monitoring_metrics", call.Tool)
}

func TestFieldHelpers(t *testing.T) {
	obj := map[string]interface{}{
		"name":       "hdfs_expert",
		"confidence": 0.75,
		"consensus":  true,
		"evidence":   []interface{}{"log line", 42, "metric"},
		"agreement":  map[string]interface{}{"a": 1.0, "b": "high"},
	}

	s, ok := StringField(obj, "name")
	assert.True(t, ok)
	assert.Equal(t, "hdfs_expert", s)
	_, ok = StringField(obj, "missing")
	assert.False(t, ok)

	f, ok := FloatField(obj, "confidence")
	assert.True(t, ok)
	assert.Equal(t, 0.75, f)

	b, ok := BoolField(obj, "consensus")
	assert.True(t, ok)
	assert.True(t, b)

	// Non-string elements are skipped, not errors.
	assert.Equal(t, []string{"log line", "metric"}, StringSliceField(obj, "evidence"))
	assert.Nil(t, StringSliceField(obj, "missing"))

	assert.Equal(t, map[string]float64{"a": 1.0}, FloatMapField(obj, "agreement"))
}
