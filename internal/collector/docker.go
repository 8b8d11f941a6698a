package collector

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/synod-io/synod/internal/logging"
)

// DockerLogSource reads Hadoop daemon logs by exec-ing tail inside the
// node containers. It implements tools.LogSource.
//
// Hadoop names its logs hadoop-hadoop-<daemon>-<hostname>.log and a
// container can host several daemons, so a logical node maps to a
// (container, daemon) pair. The daemon is derived from the node name:
// "datanode1" reads the datanode log inside container datanode1,
// "datanode-namenode" reads the datanode log inside the namenode
// container.
type DockerLogSource struct {
	nodes     map[string]string // node name -> container
	logPath   string
	tailLines int
	logger    *logging.Logger
}

const defaultHadoopLogPath = "/usr/local/hadoop/logs"

// NewDockerLogSource creates a source over node-name to container
// mappings.
func NewDockerLogSource(nodes map[string]string, tailLines int) *DockerLogSource {
	if tailLines <= 0 {
		tailLines = 200
	}
	return &DockerLogSource{
		nodes:     nodes,
		logPath:   defaultHadoopLogPath,
		tailLines: tailLines,
		logger:    logging.GetLogger("collector.docker"),
	}
}

// Nodes implements tools.LogSource.
func (s *DockerLogSource) Nodes() []string {
	nodes := make([]string, 0, len(s.nodes))
	for node := range s.nodes {
		nodes = append(nodes, node)
	}
	return nodes
}

var trailingDigits = regexp.MustCompile(`\d+$`)

// daemonOf derives the Hadoop daemon name from a logical node name.
func daemonOf(node string) string {
	if i := strings.Index(node, "-"); i > 0 {
		return node[:i]
	}
	return trailingDigits.ReplaceAllString(node, "")
}

// logFile returns the daemon log path for a node inside its container.
func (s *DockerLogSource) logFile(node, container string) string {
	return fmt.Sprintf("%s/hadoop-hadoop-%s-%s.log", s.logPath, daemonOf(node), container)
}

// NodeLog implements tools.LogSource.
func (s *DockerLogSource) NodeLog(ctx context.Context, node string) (string, error) {
	container, ok := s.nodes[node]
	if !ok {
		return "", fmt.Errorf("unknown log node %q", node)
	}

	// Tail more than requested so that filtering INFO noise still
	// leaves enough signal.
	rawLines := s.tailLines * 3
	cmd := exec.CommandContext(ctx, "docker", "exec", container,
		"tail", "-n", strconv.Itoa(rawLines), s.logFile(node, container))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("reading log of %s: %v: %s", node, err, strings.TrimSpace(string(out)))
	}

	return filterLog(string(out), s.tailLines), nil
}

// ClusterLogs implements tools.LogSource. Unreadable nodes degrade to
// an inline error marker so one dead container does not hide the rest.
func (s *DockerLogSource) ClusterLogs(ctx context.Context) (map[string]string, error) {
	logs := make(map[string]string, len(s.nodes))
	for node := range s.nodes {
		content, err := s.NodeLog(ctx, node)
		if err != nil {
			s.logger.WarnWithFields("log read failed",
				logging.Field("node", node),
				logging.Field("error", err.Error()))
			logs[node] = fmt.Sprintf("[log unavailable: %v]", err)
			continue
		}
		logs[node] = content
	}
	return logs, nil
}

// filterLog drops INFO and classpath noise, keeping the last maxLines
// of what remains.
func filterLog(content string, maxLines int) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, " INFO ") || strings.HasPrefix(line, "classpath") {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) > maxLines {
		kept = kept[len(kept)-maxLines:]
	}
	return strings.Join(kept, "\n")
}

// DockerRunner executes whitelisted commands inside cluster containers
// via docker exec. It implements tools.CommandRunner; whitelisting
// happens in the tools layer before a command reaches this type.
type DockerRunner struct {
	logger *logging.Logger
}

// NewDockerRunner creates a runner.
func NewDockerRunner() *DockerRunner {
	return &DockerRunner{logger: logging.GetLogger("collector.runner")}
}

// Run implements tools.CommandRunner.
func (r *DockerRunner) Run(ctx context.Context, container string, args []string) (string, error) {
	r.logger.InfoWithFields("executing command",
		logging.Field("container", container),
		logging.Field("command", strings.Join(args, " ")))

	execArgs := append([]string{"exec", container}, args...)
	// #nosec G204 -- args have passed the command whitelist by the time
	// they reach the runner
	cmd := exec.CommandContext(ctx, "docker", execArgs...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("command failed in %s: %w", container, err)
	}
	return string(out), nil
}
