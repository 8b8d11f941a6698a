package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synod-io/synod/internal/models"
)

// fakeLogs serves canned node logs.
type fakeLogs struct {
	logs map[string]string
}

func (f *fakeLogs) Nodes() []string {
	nodes := make([]string, 0, len(f.logs))
	for node := range f.logs {
		nodes = append(nodes, node)
	}
	return nodes
}

func (f *fakeLogs) NodeLog(ctx context.Context, node string) (string, error) {
	content, ok := f.logs[node]
	if !ok {
		return "", fmt.Errorf("unknown log node %q", node)
	}
	return content, nil
}

func (f *fakeLogs) ClusterLogs(ctx context.Context) (map[string]string, error) {
	return f.logs, nil
}

// fakeMetrics serves canned metrics.
type fakeMetrics struct {
	metrics map[string]models.NodeMetrics
}

func (f *fakeMetrics) Nodes() []string {
	nodes := make([]string, 0, len(f.metrics))
	for node := range f.metrics {
		nodes = append(nodes, node)
	}
	return nodes
}

func (f *fakeMetrics) Collect(ctx context.Context, node string) (models.NodeMetrics, error) {
	nm, ok := f.metrics[node]
	if !ok {
		return models.NodeMetrics{}, fmt.Errorf("unknown metric node %q", node)
	}
	return nm, nil
}

// fakeRunner records executed commands.
type fakeRunner struct {
	commands [][]string
	output   string
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, container string, args []string) (string, error) {
	f.commands = append(f.commands, append([]string{container}, args...))
	return f.output, f.err
}

func testLogs() *fakeLogs {
	return &fakeLogs{logs: map[string]string{
		"namenode":  "2026-08-30 WARN slow heartbeat\n2026-08-30 ERROR heartbeat expired for datanode1",
		"datanode1": "2026-08-30 FATAL disk failure\njava.io.IOException: No space left on device",
	}}
}

func execute(t *testing.T, tool Tool, args map[string]interface{}) *Result {
	t.Helper()
	input, err := json.Marshal(args)
	require.NoError(t, err)
	result, err := tool.Execute(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestNodeLogTool(t *testing.T) {
	tool := &nodeLogTool{logs: testLogs()}

	result := execute(t, tool, map[string]interface{}{"node_name": "namenode"})
	require.True(t, result.Success)
	data := result.Data.(map[string]string)
	assert.Contains(t, data["log"], "heartbeat expired")
}

func TestNodeLogTool_MissingNodeName(t *testing.T) {
	tool := &nodeLogTool{logs: testLogs()}

	result := execute(t, tool, map[string]interface{}{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "node_name is required")
}

func TestNodeLogTool_UnknownNode(t *testing.T) {
	tool := &nodeLogTool{logs: testLogs()}

	result := execute(t, tool, map[string]interface{}{"node_name": "datanode9"})
	assert.False(t, result.Success)
}

func TestSearchLogsTool(t *testing.T) {
	tool := &searchLogsTool{logs: testLogs()}

	result := execute(t, tool, map[string]interface{}{
		"node_name": "namenode",
		"keyword":   "HEARTBEAT",
	})
	require.True(t, result.Success)

	data := result.Data.(map[string]interface{})
	matches := data["matches"].([]string)
	// Matching is case-insensitive.
	assert.Len(t, matches, 2)
}

func TestSearchLogsTool_MaxResults(t *testing.T) {
	tool := &searchLogsTool{logs: testLogs()}

	result := execute(t, tool, map[string]interface{}{
		"node_name":   "namenode",
		"keyword":     "heartbeat",
		"max_results": 1,
	})
	require.True(t, result.Success)
	matches := result.Data.(map[string]interface{})["matches"].([]string)
	assert.Len(t, matches, 1)
}

func TestErrorSummaryTool(t *testing.T) {
	tool := &errorSummaryTool{logs: testLogs()}

	result := execute(t, tool, map[string]interface{}{})
	require.True(t, result.Success)

	summaries := result.Data.([]nodeErrorSummary)
	require.Len(t, summaries, 2)

	// Nodes are reported in sorted order.
	assert.Equal(t, "datanode1", summaries[0].Node)
	assert.Equal(t, 1, summaries[0].Errors) // the FATAL line
	assert.Equal(t, "namenode", summaries[1].Node)
	assert.Equal(t, 1, summaries[1].Errors)
	assert.Equal(t, 1, summaries[1].Warnings)
}

func TestValidateCommand(t *testing.T) {
	valid := [][]string{
		{"hdfs", "dfsadmin", "-report"},
		{"hadoop", "fs", "-ls", "/"},
		{"yarn", "node", "-list"},
		{"df", "-h"},
		{"start-dfs.sh"},
		{"hadoop-daemon.sh", "start", "datanode"},
	}
	for _, args := range valid {
		assert.NoError(t, validateCommand(args), "args: %v", args)
	}

	invalid := [][]string{
		{},
		{"bash", "-c", "rm -rf /"},
		{"rm", "-rf", "/usr/local/hadoop"},
		{"find", "/", "-delete"},
		{"hdfs", "namenode", "-format"},
		{"hadoop-daemon.sh", "format"},
		{"docker", "run", "evil"},
		{"hdfs"},
	}
	for _, args := range invalid {
		assert.Error(t, validateCommand(args), "args: %v", args)
	}
}

func TestHadoopCommandTool(t *testing.T) {
	runner := &fakeRunner{output: "Live datanodes (2)"}
	tool := &hadoopCommandTool{runner: runner}

	result := execute(t, tool, map[string]interface{}{
		"command_args": []string{"hdfs", "dfsadmin", "-report"},
	})
	require.True(t, result.Success)
	require.Len(t, runner.commands, 1)
	// Default container is the namenode.
	assert.Equal(t, []string{"namenode", "hdfs", "dfsadmin", "-report"}, runner.commands[0])
}

func TestHadoopCommandTool_RejectsNonWhitelisted(t *testing.T) {
	runner := &fakeRunner{}
	tool := &hadoopCommandTool{runner: runner}

	result := execute(t, tool, map[string]interface{}{
		"command_args": []string{"curl", "http://evil"},
	})
	assert.False(t, result.Success)
	assert.Empty(t, runner.commands, "rejected commands must never reach the runner")
}

func TestHadoopCommandTool_RejectsUnknownContainer(t *testing.T) {
	runner := &fakeRunner{}
	tool := &hadoopCommandTool{runner: runner}

	result := execute(t, tool, map[string]interface{}{
		"command_args": []string{"hdfs", "dfsadmin", "-report"},
		"container":    "gateway",
	})
	assert.False(t, result.Success)
	assert.Empty(t, runner.commands)
}

func TestAutoOperationTool_DaemonRestart(t *testing.T) {
	runner := &fakeRunner{output: "done"}
	tool := &autoOperationTool{runner: runner}

	result := execute(t, tool, map[string]interface{}{
		"operation": "restart",
		"container": "datanode1",
	})
	require.True(t, result.Success)

	require.Len(t, runner.commands, 2)
	assert.Equal(t, []string{"datanode1", "hadoop-daemon.sh", "stop", "datanode"}, runner.commands[0])
	assert.Equal(t, []string{"datanode1", "hadoop-daemon.sh", "start", "datanode"}, runner.commands[1])
}

func TestAutoOperationTool_ClusterStart(t *testing.T) {
	runner := &fakeRunner{output: "starting namenodes"}
	tool := &autoOperationTool{runner: runner}

	result := execute(t, tool, map[string]interface{}{"operation": "start"})
	require.True(t, result.Success)
	require.Len(t, runner.commands, 1)
	assert.Equal(t, []string{"namenode", "start-dfs.sh"}, runner.commands[0])
}

func TestAutoOperationTool_ClusterRestartRejected(t *testing.T) {
	tool := &autoOperationTool{runner: &fakeRunner{}}

	result := execute(t, tool, map[string]interface{}{"operation": "restart"})
	assert.False(t, result.Success)
}

func TestAutoOperationTool_InvalidOperation(t *testing.T) {
	tool := &autoOperationTool{runner: &fakeRunner{}}

	result := execute(t, tool, map[string]interface{}{"operation": "format"})
	assert.False(t, result.Success)
}

func TestRepairPlanTool(t *testing.T) {
	tool := &repairPlanTool{}

	result := execute(t, tool, map[string]interface{}{"fault_type": "datanode_down"})
	require.True(t, result.Success)

	result = execute(t, tool, map[string]interface{}{"fault_type": "made_up"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "datanode_down", "error should list supported types")
}
