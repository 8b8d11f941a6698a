package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/models"
	"github.com/synod-io/synod/internal/tools"
)

// fakeTool records calls and returns a scripted result.
type fakeTool struct {
	name   string
	result *tools.Result
	calls  int
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake tool for tests" }
func (f *fakeTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (f *fakeTool) Execute(ctx context.Context, input json.RawMessage) (*tools.Result, error) {
	f.calls++
	return f.result, nil
}

func toolCallText(tool string) string {
	return fmt.Sprintf(`{"action": "call_tool", "tool": "%s", "args": {"node_name": "namenode"}}`, tool)
}

func newTestRunner(t *testing.T, scenario *gateway.Scenario, registry *tools.Registry, maxToolCalls int) *Runner {
	t.Helper()
	return NewRunner(RunnerConfig{
		Role:         "tester",
		SystemPrompt: "you are a test agent",
		Gateway:      gateway.NewMockFromScenario(scenario),
		Registry:     registry,
		MaxToolCalls: maxToolCalls,
	})
}

func staticPrompt([]models.ToolCallResult) string { return "diagnose" }

func TestRun_TerminalAnswer(t *testing.T) {
	scenario := &gateway.Scenario{
		Name: "terminal",
		Steps: []gateway.ScenarioStep{
			{Role: "tester", Text: "Root cause: the datanode process died."},
		},
	}
	runner := newTestRunner(t, scenario, tools.NewEmptyRegistry(), 2)

	out, err := runner.Run(context.Background(), nil, staticPrompt)
	require.NoError(t, err)
	assert.Equal(t, "Root cause: the datanode process died.", out.Text)
	assert.Empty(t, out.ToolResults)
}

func TestRun_ToolCallThenAnswer(t *testing.T) {
	registry := tools.NewEmptyRegistry()
	tool := &fakeTool{
		name:   "get_node_log",
		result: &tools.Result{Success: true, Data: "ERROR datanode heartbeat lost"},
	}
	registry.Register(tool)

	scenario := &gateway.Scenario{
		Name: "one-tool-call",
		Steps: []gateway.ScenarioStep{
			{Role: "tester", Text: toolCallText("get_node_log")},
			{Role: "tester", Text: "Root cause: heartbeat lost."},
		},
	}
	runner := newTestRunner(t, scenario, registry, 2)

	var prompts []string
	out, err := runner.Run(context.Background(), nil, func(results []models.ToolCallResult) string {
		prompts = append(prompts, fmt.Sprintf("results=%d", len(results)))
		return "diagnose"
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tool.calls)
	assert.Equal(t, "Root cause: heartbeat lost.", out.Text)

	require.Len(t, out.ToolResults, 1)
	assert.Equal(t, "get_node_log", out.ToolResults[0].Tool)
	assert.Equal(t, "ERROR datanode heartbeat lost", out.ToolResults[0].Result)

	// The second model call saw the accumulated tool result.
	assert.Equal(t, []string{"results=0", "results=1"}, prompts)
}

func TestRun_ToolBudgetExceeded(t *testing.T) {
	registry := tools.NewEmptyRegistry()
	tool := &fakeTool{
		name:   "get_cluster_logs",
		result: &tools.Result{Success: true, Data: "logs"},
	}
	registry.Register(tool)

	scenario := &gateway.Scenario{
		Name: "budget",
		Steps: []gateway.ScenarioStep{
			{Role: "tester", Text: toolCallText("get_cluster_logs"), Repeat: 5},
		},
	}
	runner := newTestRunner(t, scenario, registry, 2)

	_, err := runner.Run(context.Background(), nil, staticPrompt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolBudgetExceeded))

	var budgetErr *ToolBudgetError
	require.True(t, errors.As(err, &budgetErr))
	assert.Equal(t, 2, budgetErr.Budget)

	// The budget covers executions: the third request is rejected, not run.
	assert.Equal(t, 2, tool.calls)
}

func TestRun_ZeroBudgetRejectsFirstToolCall(t *testing.T) {
	registry := tools.NewEmptyRegistry()
	tool := &fakeTool{name: "get_cluster_logs", result: &tools.Result{Success: true}}
	registry.Register(tool)

	scenario := &gateway.Scenario{
		Name: "zero-budget",
		Steps: []gateway.ScenarioStep{
			{Role: "tester", Text: toolCallText("get_cluster_logs")},
		},
	}
	runner := newTestRunner(t, scenario, registry, 0)

	_, err := runner.Run(context.Background(), nil, staticPrompt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolBudgetExceeded))
	assert.Equal(t, 0, tool.calls)
}

func TestRun_ToolFailureIsTerminal(t *testing.T) {
	registry := tools.NewEmptyRegistry()
	registry.Register(&fakeTool{
		name:   "get_node_log",
		result: &tools.Result{Success: false, Error: "node unreachable"},
	})

	scenario := &gateway.Scenario{
		Name: "tool-failure",
		Steps: []gateway.ScenarioStep{
			{Role: "tester", Text: toolCallText("get_node_log")},
		},
	}
	runner := newTestRunner(t, scenario, registry, 2)

	_, err := runner.Run(context.Background(), nil, staticPrompt)
	require.Error(t, err)

	var execErr *ToolExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "get_node_log", execErr.Tool)
	assert.Contains(t, execErr.Reason, "node unreachable")
}

func TestRun_UnknownToolIsTerminal(t *testing.T) {
	scenario := &gateway.Scenario{
		Name: "unknown-tool",
		Steps: []gateway.ScenarioStep{
			{Role: "tester", Text: toolCallText("no_such_tool")},
		},
	}
	runner := newTestRunner(t, scenario, tools.NewEmptyRegistry(), 2)

	_, err := runner.Run(context.Background(), nil, staticPrompt)
	require.Error(t, err)

	var execErr *ToolExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "no_such_tool", execErr.Tool)
}

func TestRun_GatewayErrorPropagates(t *testing.T) {
	scenario := &gateway.Scenario{
		Name: "gateway-down",
		Steps: []gateway.ScenarioStep{
			{Role: "tester", Error: "rate limited"},
		},
	}
	runner := newTestRunner(t, scenario, tools.NewEmptyRegistry(), 2)

	_, err := runner.Run(context.Background(), nil, staticPrompt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
