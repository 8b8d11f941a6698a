package collector

import (
	"regexp"
	"strconv"

	"github.com/synod-io/synod/internal/models"
)

var firstNumber = regexp.MustCompile(`(\d+)`)

// DeriveClusterState extracts the coarse cluster state from collected
// metrics. Only namenode metrics feed the derivation; when they are
// missing or errored the state stays at its zero values with
// hdfs_status "unknown".
func DeriveClusterState(nodeMetrics map[string]models.NodeMetrics) models.ClusterState {
	state := models.ClusterState{HDFSStatus: "unknown"}

	nn, ok := nodeMetrics["namenode"]
	if !ok || nn.Status == "error" {
		return state
	}

	state.DataNodeCount.Live = metricInt(nn.Metrics, "live_datanodes")
	state.DataNodeCount.Dead = metricInt(nn.Metrics, "dead_datanodes")
	state.DataNodeCount.Total = state.DataNodeCount.Live + state.DataNodeCount.Dead

	switch {
	case state.DataNodeCount.Dead > 0:
		state.HDFSStatus = "degraded"
	case state.DataNodeCount.Live > 0 && state.DataNodeCount.Live == state.DataNodeCount.Total:
		state.HDFSStatus = "healthy"
	}

	// remaining_storage carries GB in Raw; convert to bytes.
	if m, ok := nn.Metrics["remaining_storage"]; ok && m.Raw > 0 {
		state.Storage.Remaining = m.Raw * (1 << 30)
	}

	// storage_usage is a percentage; with remaining capacity known the
	// total can be back-derived.
	if m, ok := nn.Metrics["storage_usage"]; ok {
		usage := m.Raw
		if state.Storage.Remaining > 0 && usage > 0 && usage < 100 {
			state.Storage.Total = state.Storage.Remaining / (1 - usage/100)
			state.Storage.Used = state.Storage.Total - state.Storage.Remaining
		}
	}

	return state
}

// metricInt reads an integer metric value, falling back to the first
// digit run in a string value ("3 (heartbeat)" reads as 3).
func metricInt(metrics map[string]models.Metric, name string) int {
	m, ok := metrics[name]
	if !ok {
		return 0
	}
	if m.Raw != 0 {
		return int(m.Raw)
	}
	switch v := m.Value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if match := firstNumber.FindString(v); match != "" {
			n, err := strconv.Atoi(match)
			if err == nil {
				return n
			}
		}
	}
	return 0
}
