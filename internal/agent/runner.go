// Package agent implements the shared reasoning loop all diagnosis
// agents run on: build a prompt, call the model gateway, parse the
// output, and either terminate with a result or execute one requested
// tool and iterate. The loop is bounded by a tool-call budget and is
// strictly sequential within one agent; concurrency happens a level
// up, in the orchestrator's fan-out.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/synod-io/synod/internal/audit"
	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/models"
	"github.com/synod-io/synod/internal/tools"
)

// ErrToolBudgetExceeded is returned when an agent asks for more tool
// calls than its budget allows. The last model response rides along in
// the wrapping ToolBudgetError.
var ErrToolBudgetExceeded = errors.New("tool call limit exceeded")

// ToolBudgetError wraps ErrToolBudgetExceeded with the run state at
// the moment the budget ran out.
type ToolBudgetError struct {
	Budget       int
	LastResponse string
}

func (e *ToolBudgetError) Error() string {
	return fmt.Sprintf("tool call limit exceeded (budget %d)", e.Budget)
}

func (e *ToolBudgetError) Unwrap() error { return ErrToolBudgetExceeded }

// ToolExecutionError reports a failed tool execution. It terminates
// the agent run; the fan-out converts it into an error marker.
type ToolExecutionError struct {
	Tool   string
	Reason string
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Reason)
}

// PromptBuilder renders the prompt for the next model call from the
// tool results accumulated so far. It is called once per loop
// iteration, so each model call sees every earlier tool result.
type PromptBuilder func(toolResults []models.ToolCallResult) string

// Output is the terminal state of one agent run.
type Output struct {
	// Text is the final model response.
	Text string

	// ToolResults are the executed tool calls, in execution order.
	ToolResults []models.ToolCallResult
}

// Runner drives the bounded tool-call loop for one agent role.
type Runner struct {
	role         string
	systemPrompt string
	gateway      gateway.Gateway
	registry     *tools.Registry
	maxToolCalls int
	audit        *audit.Logger
	logger       *logging.Logger
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Role names the agent ("classifier", "hdfs_expert", ...). Sent to
	// the gateway as an advisory hint and used in logs and audit events.
	Role string

	// SystemPrompt is the agent persona.
	SystemPrompt string

	// Gateway generates model completions.
	Gateway gateway.Gateway

	// Registry is the agent's tool view. Nil disables tool calls; a
	// requested tool then fails like any unknown tool.
	Registry *tools.Registry

	// MaxToolCalls bounds the loop. The call that would exceed the
	// budget is not executed.
	MaxToolCalls int

	// Audit receives tool and model events. May be nil.
	Audit *audit.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{
		role:         cfg.Role,
		systemPrompt: cfg.SystemPrompt,
		gateway:      cfg.Gateway,
		registry:     cfg.Registry,
		maxToolCalls: cfg.MaxToolCalls,
		audit:        cfg.Audit,
		logger:       logging.GetLogger("agent." + cfg.Role),
	}
}

// Run executes the loop until the model produces a terminal answer,
// the tool budget runs out, or a tool or gateway call fails.
//
// Errors: gateway failures are returned as-is; a failed or unknown
// tool returns a ToolExecutionError; exceeding the budget returns a
// ToolBudgetError. The caller decides which of these degrade and which
// are fatal.
func (r *Runner) Run(ctx context.Context, initial []models.ToolCallResult, build PromptBuilder) (*Output, error) {
	toolResults := append([]models.ToolCallResult(nil), initial...)
	toolCallCount := 0

	for {
		prompt := build(toolResults)

		text, err := r.gateway.Generate(ctx, gateway.Request{
			SystemPrompt: r.systemPrompt,
			Prompt:       prompt,
			Role:         r.role,
		})
		r.audit.LogModelRequest(r.role, r.role, len(prompt), err)
		if err != nil {
			return nil, fmt.Errorf("model call for %s failed: %w", r.role, err)
		}

		call, ok := TryParseToolCall(text)
		if !ok {
			return &Output{Text: text, ToolResults: toolResults}, nil
		}

		toolCallCount++
		if toolCallCount > r.maxToolCalls {
			r.logger.WarnWithFields("tool budget exhausted",
				logging.Field("budget", r.maxToolCalls),
				logging.Field("requested_tool", call.Tool))
			return nil, &ToolBudgetError{Budget: r.maxToolCalls, LastResponse: text}
		}

		result, err := r.executeTool(ctx, call)
		if err != nil {
			return nil, err
		}
		toolResults = append(toolResults, models.ToolCallResult{
			Tool:   call.Tool,
			Args:   call.Args,
			Result: result,
		})
	}
}

func (r *Runner) executeTool(ctx context.Context, call *models.ToolCallRequest) (interface{}, error) {
	r.logger.InfoWithFields("executing tool", logging.Field("tool", call.Tool))
	r.audit.LogToolStart(r.role, call.Tool, call.Args)

	argsJSON, err := json.Marshal(call.Args)
	if err != nil {
		return nil, &ToolExecutionError{Tool: call.Tool, Reason: fmt.Sprintf("marshaling args: %v", err)}
	}

	if r.registry == nil {
		r.audit.LogToolComplete(r.role, call.Tool, false, 0, "no tools available")
		return nil, &ToolExecutionError{Tool: call.Tool, Reason: "agent has no tool access"}
	}

	result := r.registry.Execute(ctx, call.Tool, argsJSON)
	r.audit.LogToolComplete(r.role, call.Tool, result.Success, result.ExecutionTimeMs, result.Summary)
	if !result.Success {
		return nil, &ToolExecutionError{Tool: call.Tool, Reason: result.Error}
	}
	return result.Data, nil
}
