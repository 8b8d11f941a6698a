package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// clusterLogsTool returns the latest log tail from every node.
type clusterLogsTool struct {
	logs LogSource
}

func (t *clusterLogsTool) Name() string { return "get_cluster_logs" }

func (t *clusterLogsTool) Description() string {
	return "Get the latest log content from every cluster node. Use this for an overall view of cluster state and to spot which nodes report problems."
}

func (t *clusterLogsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *clusterLogsTool) Execute(ctx context.Context, _ json.RawMessage) (*Result, error) {
	logs, err := t.logs.ClusterLogs(ctx)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	return &Result{
		Success: true,
		Data:    logs,
		Summary: fmt.Sprintf("Collected logs from %d nodes", len(logs)),
	}, nil
}

// nodeLogTool returns the log tail of a single node.
type nodeLogTool struct {
	logs LogSource
}

func (t *nodeLogTool) Name() string { return "get_node_log" }

func (t *nodeLogTool) Description() string {
	return "Get the log content of one named node. Use this to analyze a single node in depth after narrowing the problem down."
}

func (t *nodeLogTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"node_name"},
		"properties": map[string]interface{}{
			"node_name": map[string]interface{}{
				"type":        "string",
				"description": "Node name (for example namenode, datanode1, datanode2)",
			},
		},
	}
}

func (t *nodeLogTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		NodeName string `json:"node_name"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if args.NodeName == "" {
		return &Result{Success: false, Error: "node_name is required"}, nil
	}

	content, err := t.logs.NodeLog(ctx, args.NodeName)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}
	return &Result{
		Success: true,
		Data:    map[string]string{"node": args.NodeName, "log": content},
		Summary: fmt.Sprintf("Read %d bytes of log from %s", len(content), args.NodeName),
	}, nil
}

// searchLogsTool greps one node's log for a keyword.
type searchLogsTool struct {
	logs LogSource
}

func (t *searchLogsTool) Name() string { return "search_logs_by_keyword" }

func (t *searchLogsTool) Description() string {
	return "Search one node's log for a keyword and return the matching lines. Use this to locate a known error signature quickly."
}

func (t *searchLogsTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"node_name", "keyword"},
		"properties": map[string]interface{}{
			"node_name": map[string]interface{}{
				"type":        "string",
				"description": "Node whose log is searched",
			},
			"keyword": map[string]interface{}{
				"type":        "string",
				"description": "Case-insensitive substring to search for",
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum matching lines to return (default 50)",
			},
		},
	}
}

func (t *searchLogsTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		NodeName   string `json:"node_name"`
		Keyword    string `json:"keyword"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if args.NodeName == "" || args.Keyword == "" {
		return &Result{Success: false, Error: "node_name and keyword are required"}, nil
	}
	if args.MaxResults <= 0 {
		args.MaxResults = 50
	}

	content, err := t.logs.NodeLog(ctx, args.NodeName)
	if err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}

	needle := strings.ToLower(args.Keyword)
	var matches []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			matches = append(matches, line)
			if len(matches) >= args.MaxResults {
				break
			}
		}
	}

	return &Result{
		Success: true,
		Data: map[string]interface{}{
			"node":    args.NodeName,
			"keyword": args.Keyword,
			"matches": matches,
		},
		Summary: fmt.Sprintf("Found %d lines matching %q in %s", len(matches), args.Keyword, args.NodeName),
	}, nil
}

// errorSummaryTool counts ERROR and WARN lines per node.
type errorSummaryTool struct {
	logs LogSource
}

// nodeErrorSummary is one node's error/warning tally.
type nodeErrorSummary struct {
	Node      string   `json:"node"`
	Errors    int      `json:"errors"`
	Warnings  int      `json:"warnings"`
	Samples   []string `json:"samples,omitempty"`
	ReadError string   `json:"read_error,omitempty"`
}

func (t *errorSummaryTool) Name() string { return "get_error_logs_summary" }

func (t *errorSummaryTool) Description() string {
	return "Count ERROR and WARN log lines per node, with a few sample lines each. Use this to see where problems concentrate before reading full logs."
}

func (t *errorSummaryTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"node_name": map[string]interface{}{
				"type":        "string",
				"description": "Restrict the summary to one node (all nodes when omitted)",
			},
		},
	}
}

func (t *errorSummaryTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		NodeName string `json:"node_name"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
		}
	}

	nodes := t.logs.Nodes()
	if args.NodeName != "" {
		nodes = []string{args.NodeName}
	}
	sort.Strings(nodes)

	summaries := make([]nodeErrorSummary, 0, len(nodes))
	totalErrors := 0
	for _, node := range nodes {
		content, err := t.logs.NodeLog(ctx, node)
		if err != nil {
			summaries = append(summaries, nodeErrorSummary{Node: node, ReadError: err.Error()})
			continue
		}
		s := summarizeErrors(node, content)
		totalErrors += s.Errors
		summaries = append(summaries, s)
	}

	return &Result{
		Success: true,
		Data:    summaries,
		Summary: fmt.Sprintf("%d error lines across %d nodes", totalErrors, len(nodes)),
	}, nil
}

const maxErrorSamples = 3

func summarizeErrors(node, content string) nodeErrorSummary {
	s := nodeErrorSummary{Node: node}
	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.Contains(line, "ERROR") || strings.Contains(line, "FATAL"):
			s.Errors++
			if len(s.Samples) < maxErrorSamples {
				s.Samples = append(s.Samples, line)
			}
		case strings.Contains(line, "WARN"):
			s.Warnings++
		}
	}
	return s
}
