// Package taxonomy holds the static fault-type library for Hadoop
// clusters, the fault-to-expert mapping, and per-fault repair plan
// templates. Everything here is built once at startup and read-only
// afterwards.
package taxonomy

// Category groups fault types by the subsystem they belong to.
const (
	CategoryHDFS      = "hdfs"
	CategoryYARN      = "yarn"
	CategoryMapReduce = "mapreduce"
	CategoryNetwork   = "network"
	CategoryGeneric   = "generic"
)

// Severity levels for fault types.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// FaultType describes one known fault class.
type FaultType struct {
	// Name is the machine identifier ("datanode_down").
	Name string

	// DisplayName is the human-readable label used in reports.
	DisplayName string

	// Category is the owning subsystem (hdfs, yarn, mapreduce, network,
	// generic).
	Category string

	// Severity is the default severity when no expert overrides it.
	Severity string

	// Description summarizes the failure mode for classifier prompts.
	Description string

	// Symptoms lists typical log or metric signals, included in the
	// classifier prompt to anchor the model.
	Symptoms []string
}

// library is the static fault-type library. Order matters for prompt
// rendering; keep related faults adjacent.
var library = []FaultType{
	{
		Name:        "datanode_down",
		DisplayName: "DataNode offline",
		Category:    CategoryHDFS,
		Severity:    SeverityHigh,
		Description: "A single DataNode stopped or lost its heartbeat to the NameNode",
		Symptoms:    []string{"dead datanode count > 0", "heartbeat expired", "BlockMissingException"},
	},
	{
		Name:        "namenode_down",
		DisplayName: "NameNode offline",
		Category:    CategoryHDFS,
		Severity:    SeverityCritical,
		Description: "The NameNode process stopped; HDFS is unreachable",
		Symptoms:    []string{"connection refused on namenode RPC port", "no JMX response from namenode"},
	},
	{
		Name:        "multiple_datanodes_down",
		DisplayName: "Multiple DataNodes offline",
		Category:    CategoryHDFS,
		Severity:    SeverityCritical,
		Description: "Two or more DataNodes stopped at the same time",
		Symptoms:    []string{"dead datanode count >= 2", "mass heartbeat loss"},
	},
	{
		Name:        "cluster_id_mismatch",
		DisplayName: "Cluster ID mismatch",
		Category:    CategoryHDFS,
		Severity:    SeverityHigh,
		Description: "A DataNode's clusterID differs from the NameNode's, usually after a reformat",
		Symptoms:    []string{"Incompatible clusterIDs", "java.io.IOException in datanode log"},
	},
	{
		Name:        "namenode_safemode",
		DisplayName: "NameNode in safe mode",
		Category:    CategoryHDFS,
		Severity:    SeverityMedium,
		Description: "The NameNode is stuck in safe mode and rejects writes",
		Symptoms:    []string{"Name node is in safe mode", "SafeModeException"},
	},
	{
		Name:        "datanode_disk_full",
		DisplayName: "DataNode disk full",
		Category:    CategoryHDFS,
		Severity:    SeverityHigh,
		Description: "A DataNode ran out of local storage",
		Symptoms:    []string{"No space left on device", "remaining capacity near zero"},
	},
	{
		Name:        "under_replicated_blocks",
		DisplayName: "Under-replicated blocks",
		Category:    CategoryHDFS,
		Severity:    SeverityMedium,
		Description: "Block replica count fell below the replication factor",
		Symptoms:    []string{"Under replicated blocks > 0", "fsck reports missing replicas"},
	},
	{
		Name:        "yarn_config_error",
		DisplayName: "YARN configuration error",
		Category:    CategoryYARN,
		Severity:    SeverityMedium,
		Description: "ResourceManager or NodeManager misconfiguration prevents scheduling",
		Symptoms:    []string{"Invalid resource request", "yarn-site.xml property errors"},
	},
	{
		Name:        "yarn_nodemanager_down",
		DisplayName: "NodeManager offline",
		Category:    CategoryYARN,
		Severity:    SeverityHigh,
		Description: "A NodeManager stopped and its containers were lost",
		Symptoms:    []string{"lost node in ResourceManager UI", "NodeManager heartbeat missing"},
	},
	{
		Name:        "mapreduce_memory_insufficient",
		DisplayName: "MapReduce memory insufficient",
		Category:    CategoryMapReduce,
		Severity:    SeverityMedium,
		Description: "Task containers are killed for exceeding memory limits",
		Symptoms:    []string{"Container killed on request", "running beyond physical memory limits"},
	},
	{
		Name:        "mapreduce_disk_insufficient",
		DisplayName: "MapReduce disk insufficient",
		Category:    CategoryMapReduce,
		Severity:    SeverityMedium,
		Description: "Shuffle or spill space is exhausted on task nodes",
		Symptoms:    []string{"No space available in any of the local directories"},
	},
	{
		Name:        "mapreduce_task_timeout",
		DisplayName: "MapReduce task timeout",
		Category:    CategoryMapReduce,
		Severity:    SeverityMedium,
		Description: "Tasks time out without reporting progress",
		Symptoms:    []string{"Timed out after 600 secs", "AttemptID:... Timed out"},
	},
	{
		Name:        "network_partition",
		DisplayName: "Network partition",
		Category:    CategoryNetwork,
		Severity:    SeverityHigh,
		Description: "Nodes cannot reach each other; services are up but isolated",
		Symptoms:    []string{"NoRouteToHostException", "connection timed out between nodes"},
	},
}

var libraryByName = func() map[string]*FaultType {
	m := make(map[string]*FaultType, len(library))
	for i := range library {
		m[library[i].Name] = &library[i]
	}
	return m
}()

// Lookup returns the fault type for name, or nil when unknown.
func Lookup(name string) *FaultType {
	return libraryByName[name]
}

// CategoryOf returns the category for a fault type name, or "generic"
// when the fault type is unknown. The classifier uses this to back-fill
// a missing category.
func CategoryOf(name string) string {
	if ft := Lookup(name); ft != nil {
		return ft.Category
	}
	return CategoryGeneric
}

// All returns the fault library in declaration order.
func All() []FaultType {
	return library
}
