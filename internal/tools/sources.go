package tools

import (
	"context"

	"github.com/synod-io/synod/internal/models"
)

// LogSource reads Hadoop daemon logs from cluster nodes.
type LogSource interface {
	// Nodes returns the known log node names.
	Nodes() []string

	// NodeLog returns the tail of one node's daemon log.
	NodeLog(ctx context.Context, node string) (string, error)

	// ClusterLogs returns the tail of every node's daemon log, keyed by
	// node name. Nodes that fail to read map to an error message rather
	// than failing the whole call.
	ClusterLogs(ctx context.Context) (map[string]string, error)
}

// MetricsSource reads monitoring metrics from cluster nodes.
type MetricsSource interface {
	// Nodes returns the known metric node names.
	Nodes() []string

	// Collect reads one node's metrics.
	Collect(ctx context.Context, node string) (models.NodeMetrics, error)
}

// CommandRunner executes a command inside a cluster container.
// Implementations enforce their own transport; whitelisting is the
// caller's job.
type CommandRunner interface {
	Run(ctx context.Context, container string, args []string) (string, error)
}
