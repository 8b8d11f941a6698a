// Package collector builds the read-only cluster snapshot a diagnosis
// runs against: daemon log tails, JMX monitoring metrics, and the
// cluster state derived from them.
//
// Collection degrades per source. A failing log node or JMX endpoint
// produces an empty or error-marked section, never a failed snapshot;
// diagnosing a broken cluster is the whole point, so the collector must
// work when parts of the cluster do not.
package collector

import (
	"context"
	"time"

	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/models"
	"github.com/synod-io/synod/internal/tools"
)

// Collector assembles GlobalContext snapshots.
type Collector struct {
	logs     tools.LogSource
	metrics  tools.MetricsSource
	archiver *Archiver
	logger   *logging.Logger
}

// New creates a collector over the given sources. Either source may be
// nil; the corresponding snapshot section stays empty. archiver may be
// nil to disable archiving.
func New(logs tools.LogSource, metrics tools.MetricsSource, archiver *Archiver) *Collector {
	return &Collector{
		logs:     logs,
		metrics:  metrics,
		archiver: archiver,
		logger:   logging.GetLogger("collector"),
	}
}

// Collect gathers one snapshot. It never returns an error: each failing
// source is logged and degraded to an empty section.
func (c *Collector) Collect(ctx context.Context) *models.GlobalContext {
	snapshot := &models.GlobalContext{
		Timestamp: time.Now(),
		Logs:      map[string]string{},
		Metrics:   map[string]models.NodeMetrics{},
	}

	if c.logs != nil {
		logs, err := c.logs.ClusterLogs(ctx)
		if err != nil {
			c.logger.Warn("log collection failed: %v", err)
		} else {
			snapshot.Logs = logs
		}
	}

	if c.metrics != nil {
		for _, node := range c.metrics.Nodes() {
			nm, err := c.metrics.Collect(ctx, node)
			if err != nil {
				c.logger.WarnWithFields("metric collection failed",
					logging.Field("node", node),
					logging.Field("error", err.Error()))
				snapshot.Metrics[node] = models.NodeMetrics{Status: "error", Error: err.Error()}
				continue
			}
			snapshot.Metrics[node] = nm
		}
	}

	snapshot.ClusterState = DeriveClusterState(snapshot.Metrics)

	c.logger.InfoWithFields("snapshot collected",
		logging.Field("log_nodes", len(snapshot.Logs)),
		logging.Field("metric_nodes", len(snapshot.Metrics)),
		logging.Field("hdfs_status", snapshot.ClusterState.HDFSStatus))

	if c.archiver != nil {
		c.archiver.Archive(snapshot)
	}

	return snapshot
}
