// Package experts implements the five domain expert agents. Each expert
// is the shared reasoning loop configured with a domain persona, a tool
// subset scoped to that domain, and a prose parser that lifts the
// structured diagnosis fields out of the free-form answer.
package experts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/synod-io/synod/internal/agent"
	"github.com/synod-io/synod/internal/audit"
	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/models"
	"github.com/synod-io/synod/internal/taxonomy"
	"github.com/synod-io/synod/internal/tools"
)

const (
	// logNodeLimit caps the number of nodes whose logs appear in expert
	// prompts, and logPreviewBytes how much of each.
	logNodeLimit    = 3
	logPreviewBytes = 1000
)

// keyNameNodeMetrics are the namenode metrics worth surfacing verbatim
// in expert prompts.
var keyNameNodeMetrics = []string{
	"live_datanodes",
	"dead_datanodes",
	"under_replicated_blocks",
	"storage_usage",
	"remaining_storage",
	"fs_state",
}

// Profile is the static configuration of one expert variant.
type Profile struct {
	// Name is the expert identifier ("hdfs_expert").
	Name string

	// Focus is a one-line description of the expert's domain, used in
	// the persona prompt.
	Focus string

	// FaultTypes lists the library fault types the expert owns. Empty
	// means the expert handles anything (the generic expert).
	FaultTypes []string

	// ToolNames is the registry subset the expert may call. Empty means
	// the full registry.
	ToolNames []string
}

var domainTools = []string{
	"get_cluster_logs",
	"get_node_log",
	"get_monitoring_metrics",
	"execute_hadoop_command",
	"search_logs_by_keyword",
}

// networkTools excludes monitoring metrics: network diagnosis works off
// logs and connectivity probes, not JMX readings.
var networkTools = []string{
	"get_cluster_logs",
	"get_node_log",
	"execute_hadoop_command",
	"search_logs_by_keyword",
}

var profiles = map[string]Profile{
	taxonomy.ExpertHDFS: {
		Name:  taxonomy.ExpertHDFS,
		Focus: "HDFS storage layer faults: NameNode, DataNodes, block replication and capacity",
		FaultTypes: []string{
			"datanode_down", "namenode_down", "multiple_datanodes_down",
			"cluster_id_mismatch", "namenode_safemode",
			"datanode_disk_full", "under_replicated_blocks",
		},
		ToolNames: domainTools,
	},
	taxonomy.ExpertYARN: {
		Name:  taxonomy.ExpertYARN,
		Focus: "YARN resource management faults: ResourceManager, NodeManagers and scheduling configuration",
		FaultTypes: []string{
			"yarn_config_error", "yarn_nodemanager_down",
		},
		ToolNames: domainTools,
	},
	taxonomy.ExpertMapReduce: {
		Name:  taxonomy.ExpertMapReduce,
		Focus: "MapReduce job execution faults: container memory, spill space and task progress",
		FaultTypes: []string{
			"mapreduce_memory_insufficient", "mapreduce_disk_insufficient",
			"mapreduce_task_timeout",
		},
		ToolNames: domainTools,
	},
	taxonomy.ExpertNetwork: {
		Name:  taxonomy.ExpertNetwork,
		Focus: "network connectivity faults between cluster nodes: partitions, DNS and port reachability",
		FaultTypes: []string{
			"network_partition",
		},
		ToolNames: networkTools,
	},
	taxonomy.ExpertGeneric: {
		Name:  taxonomy.ExpertGeneric,
		Focus: "unknown and cross-component faults that do not fit a single subsystem",
	},
}

// Names returns the known expert names, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expert is one instantiated expert agent.
type Expert struct {
	profile  Profile
	registry *tools.Registry
	runner   *agent.Runner
}

// New creates the expert called name, scoping registry down to the
// profile's tool subset.
func New(name string, gw gateway.Gateway, registry *tools.Registry, maxToolCalls int, auditLog *audit.Logger) (*Expert, error) {
	profile, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown expert %q", name)
	}

	scoped := registry
	if registry != nil && len(profile.ToolNames) > 0 {
		scoped = registry.Subset(profile.ToolNames...)
	}

	return &Expert{
		profile:  profile,
		registry: scoped,
		runner: agent.NewRunner(agent.RunnerConfig{
			Role:         name,
			SystemPrompt: systemPrompt(profile, scoped),
			Gateway:      gw,
			Registry:     scoped,
			MaxToolCalls: maxToolCalls,
			Audit:        auditLog,
		}),
	}, nil
}

// Name returns the expert identifier.
func (e *Expert) Name() string { return e.profile.Name }

// ToolNames returns the expert's tool subset, sorted.
func (e *Expert) ToolNames() []string {
	if e.registry == nil {
		return nil
	}
	names := e.registry.Names()
	sort.Strings(names)
	return names
}

// Run executes one diagnosis. The returned error covers gateway
// failures, tool failures and an exhausted tool budget; the fan-out
// converts any of them into an error marker.
func (e *Expert) Run(ctx context.Context, input *models.ExpertInput) (*models.ExpertDiagnosis, error) {
	out, err := e.runner.Run(ctx, input.ToolResults, func(toolResults []models.ToolCallResult) string {
		return buildPrompt(e.profile, input, toolResults)
	})
	if err != nil {
		return nil, err
	}

	diagnosis := ExtractDiagnosis(out.Text)
	diagnosis.ExpertName = e.profile.Name
	if ft := taxonomy.Lookup(input.FaultType); ft != nil {
		diagnosis.Severity = ft.Severity
	}
	return diagnosis, nil
}

// systemPrompt renders the expert persona with its fault focus and the
// tool-call convention over the tools it actually has.
func systemPrompt(p Profile, registry *tools.Registry) string {
	var b strings.Builder
	b.WriteString("You are a Hadoop cluster diagnosis expert focused on ")
	b.WriteString(p.Focus)
	b.WriteString(".\n\n")

	if len(p.FaultTypes) > 0 {
		b.WriteString("Fault types you own:\n")
		for _, name := range p.FaultTypes {
			if ft := taxonomy.Lookup(name); ft != nil {
				fmt.Fprintf(&b, "- %s: %s\n", ft.Name, ft.Description)
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("You handle unknown faults and compound faults spanning several subsystems; analyze broadly.\n\n")
	}

	b.WriteString("Diagnose from the provided context. Identify the root cause, not just the symptom, ")
	b.WriteString("and back every claim with concrete evidence from logs or metrics.\n\n")

	if registry != nil && len(registry.Names()) > 0 {
		b.WriteString("If the context is insufficient you may request one tool call by answering with ONLY this JSON object:\n")
		b.WriteString("{\"action\": \"call_tool\", \"tool\": \"get_node_log\", \"args\": {\"node_name\": \"namenode\"}}\n")
		b.WriteString("Available tools:\n")
		for _, def := range registry.Definitions() {
			fmt.Fprintf(&b, "- %s: %s\n", def.Name, def.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("For your final answer, write a professional diagnosis in prose with these labeled sections:\n")
	b.WriteString("Root cause: <one-line root cause>\n")
	b.WriteString("Evidence:\n- <log or metric evidence>\n")
	b.WriteString("Fix steps:\n1. <step>\n")
	b.WriteString("Confidence: <0.0-1.0>\n")
	return b.String()
}

// truncateLog caps a log at logPreviewBytes, cut on a rune boundary so
// multi-byte log lines are not split mid-character.
func truncateLog(content string) string {
	if len(content) <= logPreviewBytes {
		return content
	}
	cut := logPreviewBytes
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "\n... (log truncated)"
}

// buildPrompt renders the diagnosis request: fault type, user query,
// trimmed logs, key namenode metrics, cluster state, related faults and
// any accumulated tool results.
func buildPrompt(p Profile, input *models.ExpertInput, toolResults []models.ToolCallResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Fault type\n%s\n", input.FaultType)
	if ft := taxonomy.Lookup(input.FaultType); ft != nil {
		fmt.Fprintf(&b, "Display name: %s\nSeverity: %s\n", ft.DisplayName, ft.Severity)
	} else if p.Name == taxonomy.ExpertGeneric {
		b.WriteString("Note: unrecognized fault type, analyze comprehensively.\n")
	}
	b.WriteString("\n")

	if input.UserQuery != "" {
		fmt.Fprintf(&b, "User report: %s\n\n", input.UserQuery)
	}

	snapshot := input.Context
	if snapshot != nil {
		if len(snapshot.Logs) > 0 {
			b.WriteString("## Cluster logs\n")
			nodes := make([]string, 0, len(snapshot.Logs))
			for node := range snapshot.Logs {
				nodes = append(nodes, node)
			}
			sort.Strings(nodes)
			if len(nodes) > logNodeLimit {
				nodes = nodes[:logNodeLimit]
			}
			for _, node := range nodes {
				fmt.Fprintf(&b, "### %s\n%s\n", node, truncateLog(snapshot.Logs[node]))
			}
			b.WriteString("\n")
		}

		if nn, ok := snapshot.Metrics["namenode"]; ok && nn.Status == "ok" {
			b.WriteString("## Key metrics\n")
			for _, name := range keyNameNodeMetrics {
				if m, ok := nn.Metrics[name]; ok {
					fmt.Fprintf(&b, "- %s: %v (%s)\n", m.Name, m.Value, m.Status)
				}
			}
			b.WriteString("\n")
		}

		state := snapshot.ClusterState
		b.WriteString("## Cluster state\n")
		fmt.Fprintf(&b, "- DataNodes: %d live, %d dead\n",
			state.DataNodeCount.Live, state.DataNodeCount.Dead)
		fmt.Fprintf(&b, "- HDFS status: %s\n\n", state.HDFSStatus)
	}

	if len(input.RelatedFaults) > 0 {
		b.WriteString("## Possibly related faults\n")
		for _, fault := range input.RelatedFaults {
			fmt.Fprintf(&b, "- %s\n", fault)
		}
		b.WriteString("\n")
	}

	if len(toolResults) > 0 {
		b.WriteString("## Tool results\n")
		for _, tr := range toolResults {
			data, _ := json.Marshal(tr.Result)
			fmt.Fprintf(&b, "- tool: %s\n  result: %s\n", tr.Tool, data)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Task\n")
	b.WriteString("Based on the context above:\n")
	b.WriteString("1. Identify the root cause\n")
	b.WriteString("2. List the supporting evidence\n")
	b.WriteString("3. Provide clear fix steps\n")
	b.WriteString("4. State your confidence\n")
	return b.String()
}
