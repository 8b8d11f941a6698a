package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/synod-io/synod/internal/models"
)

func namenodeMetrics(live, dead int) map[string]models.NodeMetrics {
	return map[string]models.NodeMetrics{
		"namenode": {
			Status: "ok",
			Metrics: map[string]models.Metric{
				"live_datanodes": {Name: "Live DataNodes", Value: live, Raw: float64(live)},
				"dead_datanodes": {Name: "Dead DataNodes", Value: dead, Raw: float64(dead)},
			},
		},
	}
}

func TestDeriveClusterState_Healthy(t *testing.T) {
	state := DeriveClusterState(namenodeMetrics(2, 0))
	assert.Equal(t, "healthy", state.HDFSStatus)
	assert.Equal(t, models.DataNodeCount{Live: 2, Dead: 0, Total: 2}, state.DataNodeCount)
}

func TestDeriveClusterState_Degraded(t *testing.T) {
	state := DeriveClusterState(namenodeMetrics(1, 1))
	assert.Equal(t, "degraded", state.HDFSStatus)
	assert.Equal(t, models.DataNodeCount{Live: 1, Dead: 1, Total: 2}, state.DataNodeCount)
}

func TestDeriveClusterState_NoNameNode(t *testing.T) {
	state := DeriveClusterState(map[string]models.NodeMetrics{})
	assert.Equal(t, "unknown", state.HDFSStatus)

	state = DeriveClusterState(map[string]models.NodeMetrics{
		"namenode": {Status: "error", Error: "connection refused"},
	})
	assert.Equal(t, "unknown", state.HDFSStatus)
	assert.Zero(t, state.DataNodeCount.Total)
}

func TestDeriveClusterState_ZeroDataNodes(t *testing.T) {
	// A namenode reporting zero live and zero dead datanodes is not
	// healthy, just undetermined.
	state := DeriveClusterState(namenodeMetrics(0, 0))
	assert.Equal(t, "unknown", state.HDFSStatus)
}

func TestDeriveClusterState_StringMetricValue(t *testing.T) {
	metrics := map[string]models.NodeMetrics{
		"namenode": {
			Status: "ok",
			Metrics: map[string]models.Metric{
				"live_datanodes": {Name: "Live DataNodes", Value: "3 nodes"},
				"dead_datanodes": {Name: "Dead DataNodes", Value: "0"},
			},
		},
	}
	state := DeriveClusterState(metrics)
	assert.Equal(t, 3, state.DataNodeCount.Live)
	assert.Equal(t, "healthy", state.HDFSStatus)
}

func TestDeriveClusterState_Storage(t *testing.T) {
	metrics := namenodeMetrics(2, 0)
	nn := metrics["namenode"]
	nn.Metrics["remaining_storage"] = models.Metric{Name: "Remaining storage", Value: "50.0 GB", Raw: 50}
	nn.Metrics["storage_usage"] = models.Metric{Name: "Storage usage", Value: "50.0%", Raw: 50}
	metrics["namenode"] = nn

	state := DeriveClusterState(metrics)
	assert.Equal(t, float64(50*(1<<30)), state.Storage.Remaining)
	assert.Equal(t, float64(100*(1<<30)), state.Storage.Total)
	assert.Equal(t, float64(50*(1<<30)), state.Storage.Used)
}

func TestFilterLog(t *testing.T) {
	content := "2026-08-30 INFO startup complete\n" +
		"2026-08-30 WARN heartbeat slow\n" +
		"classpath = /usr/local/hadoop/lib\n" +
		"2026-08-30 ERROR heartbeat expired\n"

	filtered := filterLog(content, 10)
	assert.NotContains(t, filtered, " INFO ")
	assert.NotContains(t, filtered, "classpath")
	assert.Contains(t, filtered, "WARN heartbeat slow")
	assert.Contains(t, filtered, "ERROR heartbeat expired")
}

func TestFilterLog_KeepsLastLines(t *testing.T) {
	content := "WARN a\nWARN b\nWARN c\nWARN d\n"
	filtered := filterLog(content, 2)
	assert.NotContains(t, filtered, "WARN a")
	assert.Contains(t, filtered, "WARN d")
}

func TestDaemonOf(t *testing.T) {
	assert.Equal(t, "datanode", daemonOf("datanode1"))
	assert.Equal(t, "datanode", daemonOf("datanode-namenode"))
	assert.Equal(t, "namenode", daemonOf("namenode"))
	assert.Equal(t, "secondarynamenode", daemonOf("secondarynamenode"))
}
