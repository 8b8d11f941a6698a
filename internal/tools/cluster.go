package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/synod-io/synod/internal/models"
)

// monitoringMetricsTool reads live metrics for every metric node.
type monitoringMetricsTool struct {
	metrics MetricsSource
}

func (t *monitoringMetricsTool) Name() string { return "get_monitoring_metrics" }

func (t *monitoringMetricsTool) Description() string {
	return "Get live monitoring metrics for the cluster via the nodes' JMX interfaces. Includes heartbeat state, capacity and block figures."
}

func (t *monitoringMetricsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"node_name": map[string]interface{}{
				"type":        "string",
				"description": "Restrict to one node (all nodes when omitted)",
			},
		},
	}
}

func (t *monitoringMetricsTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		NodeName string `json:"node_name"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
		}
	}

	nodes := t.metrics.Nodes()
	if args.NodeName != "" {
		nodes = []string{args.NodeName}
	}
	sort.Strings(nodes)

	out := make(map[string]models.NodeMetrics, len(nodes))
	failed := 0
	for _, node := range nodes {
		nm, err := t.metrics.Collect(ctx, node)
		if err != nil {
			failed++
			out[node] = models.NodeMetrics{Status: "error", Error: err.Error()}
			continue
		}
		out[node] = nm
	}

	return &Result{
		Success: true,
		Data:    out,
		Summary: fmt.Sprintf("Collected metrics from %d nodes (%d failed)", len(nodes), failed),
	}, nil
}

// allowedCommands whitelists the Hadoop commands the agents may run.
// The key is the executable; a non-empty value restricts the first
// argument to the listed subcommands.
var allowedCommands = map[string][]string{
	"hdfs":            {"dfsadmin", "dfs", "fsck", "df", "du"},
	"hadoop":          {"fs", "version", "classpath"},
	"yarn":            {"node", "application", "version"},
	"df":              nil,
	"docker":          {"ps"},
	"start-dfs.sh":    nil,
	"stop-dfs.sh":     nil,
	"start-yarn.sh":   nil,
	"stop-yarn.sh":    nil,
	"start-all.sh":    nil,
	"stop-all.sh":     nil,
	"hadoop-daemon.sh": {"start", "stop", "status"},
	"hdfs-daemon.sh":  {"start", "stop", "status"},
	"yarn-daemon.sh":  {"start", "stop", "status"},
}

// validateCommand enforces the command whitelist. It never executes
// anything itself.
func validateCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}
	sub, ok := allowedCommands[args[0]]
	if !ok {
		return fmt.Errorf("command %q is not whitelisted", args[0])
	}
	if len(sub) == 0 {
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("command %q requires a subcommand (one of %s)", args[0], strings.Join(sub, ", "))
	}
	for _, allowed := range sub {
		if args[1] == allowed {
			return nil
		}
	}
	return fmt.Errorf("subcommand %q of %q is not whitelisted", args[1], args[0])
}

// hadoopCommandTool runs whitelisted Hadoop commands on the namenode.
type hadoopCommandTool struct {
	runner CommandRunner
}

func (t *hadoopCommandTool) Name() string { return "execute_hadoop_command" }

func (t *hadoopCommandTool) Description() string {
	return "Execute a whitelisted Hadoop command (hdfs, hadoop, yarn and friends) on the namenode container and return its output. Non-whitelisted commands are rejected."
}

func (t *hadoopCommandTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"command_args"},
		"properties": map[string]interface{}{
			"command_args": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Command and arguments as a list, for example [\"hdfs\", \"dfsadmin\", \"-report\"]",
			},
			"container": map[string]interface{}{
				"type":        "string",
				"description": "Container to run in (default namenode)",
			},
		},
	}
}

func (t *hadoopCommandTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		CommandArgs []string `json:"command_args"`
		Container   string   `json:"container"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if err := validateCommand(args.CommandArgs); err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}

	container := args.Container
	if container == "" {
		container = "namenode"
	}
	if !allowedContainers[container] {
		return &Result{Success: false, Error: fmt.Sprintf("container %q is not whitelisted", container)}, nil
	}

	output, err := t.runner.Run(ctx, container, args.CommandArgs)
	if err != nil {
		return &Result{Success: false, Error: err.Error(), Data: map[string]string{"output": output}}, nil
	}

	return &Result{
		Success: true,
		Data:    map[string]string{"output": output},
		Summary: fmt.Sprintf("Ran %q on %s", strings.Join(args.CommandArgs, " "), container),
	}, nil
}

// allowedContainers whitelists the containers operations may touch.
var allowedContainers = map[string]bool{
	"namenode":  true,
	"datanode1": true,
	"datanode2": true,
}

// containerToDaemon maps a container to the Hadoop daemon it hosts.
var containerToDaemon = map[string]string{
	"namenode":  "namenode",
	"datanode1": "datanode",
	"datanode2": "datanode",
}

// allowedOperations are the service operations the agents may request.
var allowedOperations = map[string]bool{
	"start":   true,
	"stop":    true,
	"restart": true,
}

// autoOperationTool starts, stops or restarts Hadoop services. With no
// container it operates on the whole cluster.
type autoOperationTool struct {
	runner CommandRunner
}

func (t *autoOperationTool) Name() string { return "hadoop_auto_operation" }

func (t *autoOperationTool) Description() string {
	return "Start, stop or restart a Hadoop service inside a container, or the whole cluster when no container is given. Only whitelisted containers and operations are accepted."
}

func (t *autoOperationTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"operation"},
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type":        "string",
				"description": "One of start, stop, restart",
			},
			"container": map[string]interface{}{
				"type":        "string",
				"description": "Target container (whole cluster when omitted; restart requires a container)",
			},
		},
	}
}

func (t *autoOperationTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		Operation string `json:"operation"`
		Container string `json:"container"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if !allowedOperations[args.Operation] {
		return &Result{Success: false, Error: fmt.Sprintf("operation %q is not allowed (start, stop, restart)", args.Operation)}, nil
	}

	if args.Container == "" {
		return t.clusterOperation(ctx, args.Operation)
	}
	return t.daemonOperation(ctx, args.Operation, args.Container)
}

func (t *autoOperationTool) clusterOperation(ctx context.Context, op string) (*Result, error) {
	if op == "restart" {
		return &Result{Success: false, Error: "restart requires a container; stop and start the cluster explicitly"}, nil
	}

	script := op + "-dfs.sh"
	output, err := t.runner.Run(ctx, "namenode", []string{script})
	if err != nil {
		return &Result{Success: false, Error: err.Error(), Data: map[string]string{"output": output}}, nil
	}
	return &Result{
		Success: true,
		Data:    map[string]string{"output": output},
		Summary: fmt.Sprintf("Cluster %s completed", op),
	}, nil
}

func (t *autoOperationTool) daemonOperation(ctx context.Context, op, container string) (*Result, error) {
	if !allowedContainers[container] {
		return &Result{Success: false, Error: fmt.Sprintf("container %q is not whitelisted", container)}, nil
	}
	daemon := containerToDaemon[container]

	steps := []string{op}
	if op == "restart" {
		steps = []string{"stop", "start"}
	}

	var outputs []string
	for _, step := range steps {
		output, err := t.runner.Run(ctx, container, []string{"hadoop-daemon.sh", step, daemon})
		outputs = append(outputs, output)
		// A failed stop is tolerated during restart: the daemon may
		// already be dead, which is the very thing we are repairing.
		if err != nil && !(op == "restart" && step == "stop") {
			return &Result{
				Success: false,
				Error:   err.Error(),
				Data:    map[string]interface{}{"outputs": outputs},
			}, nil
		}
	}

	return &Result{
		Success: true,
		Data:    map[string]interface{}{"outputs": outputs},
		Summary: fmt.Sprintf("%s of %s on %s completed", op, daemon, container),
	}, nil
}
