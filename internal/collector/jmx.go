package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/models"
)

// JMXSource reads monitoring metrics from Hadoop's JMX servlet
// (http://<node>:<port>/jmx). It implements tools.MetricsSource.
type JMXSource struct {
	endpoints map[string]string
	client    *http.Client
	logger    *logging.Logger
}

// NewJMXSource creates a source over node-name to servlet-URL mappings.
func NewJMXSource(endpoints map[string]string, timeout time.Duration) *JMXSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JMXSource{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		logger:    logging.GetLogger("collector.jmx"),
	}
}

// Nodes implements tools.MetricsSource.
func (s *JMXSource) Nodes() []string {
	nodes := make([]string, 0, len(s.endpoints))
	for node := range s.endpoints {
		nodes = append(nodes, node)
	}
	return nodes
}

type jmxResponse struct {
	Beans []map[string]interface{} `json:"beans"`
}

// Collect implements tools.MetricsSource.
func (s *JMXSource) Collect(ctx context.Context, node string) (models.NodeMetrics, error) {
	url, ok := s.endpoints[node]
	if !ok {
		return models.NodeMetrics{}, fmt.Errorf("unknown metric node %q", node)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.NodeMetrics{}, fmt.Errorf("building JMX request for %s: %w", node, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return models.NodeMetrics{}, fmt.Errorf("querying JMX on %s: %w", node, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.NodeMetrics{}, fmt.Errorf("JMX on %s returned status %d", node, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return models.NodeMetrics{}, fmt.Errorf("reading JMX response from %s: %w", node, err)
	}

	var parsed jmxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.NodeMetrics{}, fmt.Errorf("parsing JMX response from %s: %w", node, err)
	}

	nm := models.NodeMetrics{Status: "ok", Metrics: map[string]models.Metric{}}
	if node == "namenode" {
		extractNameNodeMetrics(parsed.Beans, nm.Metrics)
	} else {
		extractDataNodeMetrics(parsed.Beans, nm.Metrics)
	}
	return nm, nil
}

const (
	fsNamesystemBean = "Hadoop:service=NameNode,name=FSNamesystemState"
	fsDatasetPrefix  = "Hadoop:service=DataNode,name=FSDatasetState"
)

func extractNameNodeMetrics(beans []map[string]interface{}, out map[string]models.Metric) {
	live := jmxNumber(beans, fsNamesystemBean, "NumLiveDataNodes")
	dead := jmxNumber(beans, fsNamesystemBean, "NumDeadDataNodes")
	out["live_datanodes"] = models.Metric{
		Name:   "Live DataNodes",
		Value:  int(live),
		Raw:    live,
		Status: metricStatus(dead == 0),
	}
	out["dead_datanodes"] = models.Metric{
		Name:   "Dead DataNodes",
		Value:  int(dead),
		Raw:    dead,
		Status: metricStatus(dead == 0),
	}

	under := jmxNumber(beans, fsNamesystemBean, "UnderReplicatedBlocks")
	out["under_replicated_blocks"] = models.Metric{
		Name:   "Under-replicated blocks",
		Value:  int(under),
		Raw:    under,
		Status: metricStatus(under == 0),
	}

	usage := jmxNumber(beans, fsNamesystemBean, "PercentUsed")
	out["storage_usage"] = models.Metric{
		Name:   "Storage usage",
		Value:  fmt.Sprintf("%.1f%%", usage),
		Raw:    usage,
		Status: metricStatus(usage < 90),
	}

	remaining := jmxNumber(beans, fsNamesystemBean, "CapacityRemaining")
	remainingGB := remaining / (1 << 30)
	out["remaining_storage"] = models.Metric{
		Name:   "Remaining storage",
		Value:  fmt.Sprintf("%.1f GB", remainingGB),
		Raw:    remainingGB,
		Status: metricStatus(remainingGB > 1),
	}

	if state, ok := jmxString(beans, fsNamesystemBean, "FSState"); ok {
		out["fs_state"] = models.Metric{
			Name:   "Filesystem state",
			Value:  state,
			Status: metricStatus(strings.EqualFold(state, "Operational")),
		}
	}
}

func extractDataNodeMetrics(beans []map[string]interface{}, out map[string]models.Metric) {
	for _, bean := range beans {
		name, _ := bean["name"].(string)
		if !strings.HasPrefix(name, fsDatasetPrefix) {
			continue
		}
		capacity := beanNumber(bean, "Capacity")
		used := beanNumber(bean, "DfsUsed")
		remaining := beanNumber(bean, "Remaining")
		blocks := beanNumber(bean, "NumBlocks")

		var usage float64
		if capacity > 0 {
			usage = used / capacity * 100
		}
		out["storage_usage"] = models.Metric{
			Name:   "Storage usage",
			Value:  fmt.Sprintf("%.1f%%", usage),
			Raw:    usage,
			Status: metricStatus(usage < 90),
		}
		remainingGB := remaining / (1 << 30)
		out["remaining_storage"] = models.Metric{
			Name:   "Remaining storage",
			Value:  fmt.Sprintf("%.1f GB", remainingGB),
			Raw:    remainingGB,
			Status: metricStatus(remainingGB > 1),
		}
		out["num_blocks"] = models.Metric{
			Name:  "Stored blocks",
			Value: int(blocks),
			Raw:   blocks,
		}
		return
	}
}

func metricStatus(normal bool) string {
	if normal {
		return "normal"
	}
	return "abnormal"
}

func jmxNumber(beans []map[string]interface{}, beanName, field string) float64 {
	for _, bean := range beans {
		if name, _ := bean["name"].(string); name == beanName {
			return beanNumber(bean, field)
		}
	}
	return 0
}

func jmxString(beans []map[string]interface{}, beanName, field string) (string, bool) {
	for _, bean := range beans {
		if name, _ := bean["name"].(string); name == beanName {
			s, ok := bean[field].(string)
			return s, ok
		}
	}
	return "", false
}

func beanNumber(bean map[string]interface{}, field string) float64 {
	switch v := bean[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}
