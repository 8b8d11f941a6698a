// Package tools provides the tool registry and the Hadoop diagnosis
// tools the expert agents can invoke.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/metrics"
)

const (
	// MaxToolResponseBytes is the maximum size of a tool response in
	// bytes. Responses larger than this are truncated to prevent context
	// overflow in subsequent model calls.
	MaxToolResponseBytes = 50 * 1024
)

// Tool defines the interface for agent tools.
type Tool interface {
	// Name returns the tool's unique identifier.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// InputSchema returns JSON Schema for input validation.
	InputSchema() map[string]interface{}

	// Execute runs the tool with given input.
	Execute(ctx context.Context, input json.RawMessage) (*Result, error)
}

// Result represents the output of a tool execution.
type Result struct {
	// Success indicates if the tool executed successfully
	Success bool `json:"success"`

	// Data contains the tool's output (tool-specific structure)
	Data interface{} `json:"data,omitempty"`

	// Error contains error details if Success is false
	Error string `json:"error,omitempty"`

	// Summary is a brief description of what happened
	Summary string `json:"summary,omitempty"`

	// ExecutionTimeMs is how long the tool took to run
	ExecutionTimeMs int64 `json:"execution_time_ms"`
}

// Definition is the prompt-facing view of a tool.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Dependencies contains the external dependencies needed by the
// standard tool set.
type Dependencies struct {
	Logs    LogSource
	Metrics MetricsSource
	Runner  CommandRunner

	// Instrumentation counts tool executions. Optional.
	Instrumentation *metrics.Metrics
}

// Registry manages tool registration and lookup. It is populated at
// startup and read-only afterwards, so concurrent Execute calls from
// parallel experts are safe.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex

	instrumentation *metrics.Metrics
	logger          *logging.Logger
}

// NewRegistry creates a registry pre-populated with the standard Hadoop
// diagnosis tools for the provided dependencies. Tools whose
// dependencies are missing are skipped.
func NewRegistry(deps Dependencies) *Registry {
	r := &Registry{
		tools:           make(map[string]Tool),
		instrumentation: deps.Instrumentation,
		logger:          logging.GetLogger("tools.registry"),
	}

	if deps.Logs != nil {
		r.register(&clusterLogsTool{logs: deps.Logs})
		r.register(&nodeLogTool{logs: deps.Logs})
		r.register(&searchLogsTool{logs: deps.Logs})
		r.register(&errorSummaryTool{logs: deps.Logs})
	}
	if deps.Metrics != nil {
		r.register(&monitoringMetricsTool{metrics: deps.Metrics})
	}
	if deps.Runner != nil {
		r.register(&hadoopCommandTool{runner: deps.Runner})
		r.register(&autoOperationTool{runner: deps.Runner})
	}
	r.register(&repairPlanTool{})

	return r
}

// NewEmptyRegistry creates a registry with no tools. Used by tests that
// register their own fakes.
func NewEmptyRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logging.GetLogger("tools.registry"),
	}
}

func (r *Registry) register(tool Tool) {
	r.tools[tool.Name()] = tool
	r.logger.Debug("registered tool %s", tool.Name())
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(tool)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Definitions returns prompt-facing definitions for all tools.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, Definition{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return defs
}

// Subset returns a registry restricted to the named tools. Names not
// present are silently skipped. The subset shares the underlying tools,
// which are read-only, so it is as cheap as a map copy.
func (r *Registry) Subset(names ...string) *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub := &Registry{
		tools:           make(map[string]Tool, len(names)),
		instrumentation: r.instrumentation,
		logger:          r.logger,
	}
	for _, name := range names {
		if tool, ok := r.tools[name]; ok {
			sub.tools[name] = tool
		}
	}
	return sub
}

// Execute runs a tool by name with the given input. Unknown tools and
// tool errors produce a failed Result, never an error return; the agent
// loop treats any failed Result as terminal for that run.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) *Result {
	tool, ok := r.Get(name)
	if !ok {
		r.count(name, metrics.OutcomeError)
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("tool %q not found", name),
		}
	}

	start := time.Now()
	result, err := tool.Execute(ctx, input)
	if err != nil {
		r.count(name, metrics.OutcomeError)
		return &Result{
			Success:         false,
			Error:           err.Error(),
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
	}

	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	if result.Success {
		r.count(name, metrics.OutcomeOK)
	} else {
		r.count(name, metrics.OutcomeError)
	}

	return truncateResult(result, MaxToolResponseBytes)
}

func (r *Registry) count(name, outcome string) {
	if r.instrumentation != nil {
		r.instrumentation.ToolCalls.WithLabelValues(name, outcome).Inc()
	}
}

// truncatedData is used when tool output exceeds MaxToolResponseBytes.
// It preserves structure while indicating data was truncated.
type truncatedData struct {
	Truncated      bool   `json:"_truncated"`
	OriginalBytes  int    `json:"_original_bytes"`
	TruncatedBytes int    `json:"_truncated_bytes"`
	TruncationNote string `json:"_truncation_note"`
	PartialData    string `json:"partial_data"`
}

// truncateResult caps the result data at maxBytes to prevent context
// overflow.
func truncateResult(result *Result, maxBytes int) *Result {
	if result == nil || result.Data == nil {
		return result
	}

	dataBytes, err := json.Marshal(result.Data)
	if err != nil {
		return result
	}
	if len(dataBytes) <= maxBytes {
		return result
	}

	partialDataBytes := maxBytes * 80 / 100
	partialData := string(dataBytes)
	if len(partialData) > partialDataBytes {
		partialData = partialData[:partialDataBytes]
	}

	summary := result.Summary
	if summary != "" {
		summary = fmt.Sprintf("%s [TRUNCATED: %d->%d bytes]", summary, len(dataBytes), maxBytes)
	} else {
		summary = fmt.Sprintf("[TRUNCATED: %d->%d bytes]", len(dataBytes), maxBytes)
	}

	return &Result{
		Success: result.Success,
		Data: &truncatedData{
			Truncated:      true,
			OriginalBytes:  len(dataBytes),
			TruncatedBytes: maxBytes,
			TruncationNote: fmt.Sprintf("Response truncated from %d to ~%d bytes. Use more specific filters to reduce result size.", len(dataBytes), maxBytes),
			PartialData:    partialData,
		},
		Error:           result.Error,
		Summary:         summary,
		ExecutionTimeMs: result.ExecutionTimeMs,
	}
}
