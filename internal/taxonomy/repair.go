package taxonomy

// RepairStep is one ordered action in a repair plan.
type RepairStep struct {
	ID             int      `json:"step_id"`
	Action         string   `json:"action"`
	Description    string   `json:"description"`
	Target         string   `json:"target,omitempty"`
	Tool           string   `json:"tool"`
	Command        []string `json:"command,omitempty"`
	Operation      string   `json:"operation,omitempty"`
	Container      string   `json:"container,omitempty"`
	Note           string   `json:"note,omitempty"`
	ExpectedResult string   `json:"expected_result"`
}

// RepairPlan is a canned, ordered repair procedure for one fault type.
type RepairPlan struct {
	FaultType   string            `json:"fault_type"`
	DisplayName string            `json:"display_name"`
	Description string            `json:"description"`
	Steps       []RepairStep      `json:"steps"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

var repairPlans = map[string]RepairPlan{
	"datanode_down": {
		FaultType:   "datanode_down",
		DisplayName: "DataNode offline",
		Description: "A DataNode stopped running or cannot be reached",
		Steps: []RepairStep{
			{
				ID:             1,
				Action:         "check_container",
				Description:    "Check DataNode status in the cluster report",
				Target:         "datanode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-report"},
				ExpectedResult: "Confirm which DataNode is dead",
			},
			{
				ID:             2,
				Action:         "restart_service",
				Description:    "Restart the DataNode service",
				Target:         "datanode",
				Tool:           "hadoop_auto_operation",
				Operation:      "restart",
				Container:      "datanode",
				ExpectedResult: "DataNode service restarted",
			},
			{
				ID:             3,
				Action:         "verify",
				Description:    "Verify the DataNode is back online",
				Target:         "datanode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-report"},
				ExpectedResult: "DataNode reported as live",
			},
		},
		Parameters: map[string]string{
			"datanode": "DataNode container to repair (datanode1 or datanode2)",
		},
	},
	"cluster_id_mismatch": {
		FaultType:   "cluster_id_mismatch",
		DisplayName: "Cluster ID mismatch",
		Description: "A DataNode's clusterID differs from the NameNode's",
		Steps: []RepairStep{
			{
				ID:             1,
				Action:         "stop_cluster",
				Description:    "Stop the whole cluster",
				Target:         "cluster",
				Tool:           "hadoop_auto_operation",
				Operation:      "stop",
				ExpectedResult: "All cluster services stopped",
			},
			{
				ID:             2,
				Action:         "clean_metadata",
				Description:    "Remove the stale DataNode VERSION file",
				Target:         "datanode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"rm", "-f", "/usr/local/hadoop/data/dfs/data/current/VERSION"},
				Note:           "Run inside each affected DataNode container",
				ExpectedResult: "DataNode metadata cleaned",
			},
			{
				ID:             3,
				Action:         "start_cluster",
				Description:    "Start the whole cluster",
				Target:         "cluster",
				Tool:           "hadoop_auto_operation",
				Operation:      "start",
				ExpectedResult: "All cluster services started",
			},
			{
				ID:             4,
				Action:         "verify",
				Description:    "Verify cluster state",
				Target:         "cluster",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-report"},
				ExpectedResult: "All DataNodes connected with a consistent cluster ID",
			},
		},
		Parameters: map[string]string{
			"datanode": "DataNode container whose metadata needs cleaning (all when unset)",
		},
	},
	"namenode_safemode": {
		FaultType:   "namenode_safemode",
		DisplayName: "NameNode in safe mode",
		Description: "The NameNode is in safe mode and rejects write operations",
		Steps: []RepairStep{
			{
				ID:             1,
				Action:         "check_safemode",
				Description:    "Check the safe mode status",
				Target:         "namenode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-safemode", "get"},
				ExpectedResult: "Confirm safe mode state",
			},
			{
				ID:             2,
				Action:         "wait_safemode",
				Description:    "Wait for automatic exit once block replication completes",
				Target:         "namenode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-safemode", "get"},
				Note:           "Safe mode normally exits on its own after replication catches up",
				ExpectedResult: "Safe mode exits automatically",
			},
			{
				ID:             3,
				Action:         "force_exit_safemode",
				Description:    "Force safe mode exit if automatic exit fails",
				Target:         "namenode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-safemode", "leave"},
				ExpectedResult: "NameNode left safe mode",
			},
			{
				ID:             4,
				Action:         "verify",
				Description:    "Verify safe mode is off",
				Target:         "namenode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-safemode", "get"},
				ExpectedResult: "NameNode not in safe mode",
			},
		},
	},
	"datanode_disk_full": {
		FaultType:   "datanode_disk_full",
		DisplayName: "DataNode disk full",
		Description: "A DataNode ran out of local storage",
		Steps: []RepairStep{
			{
				ID:             1,
				Action:         "check_disk_space",
				Description:    "Check disk usage on the DataNode",
				Target:         "datanode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"df", "-h"},
				Note:           "Run inside the container",
				ExpectedResult: "Confirm disk utilization",
			},
			{
				ID:             2,
				Action:         "clean_temp_files",
				Description:    "Remove rotated log files older than 7 days",
				Target:         "datanode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"find", "/usr/local/hadoop/logs", "-name", "*.log.*", "-mtime", "+7", "-delete"},
				ExpectedResult: "Disk space reclaimed",
			},
			{
				ID:             3,
				Action:         "restart_service",
				Description:    "Restart the DataNode if space is still short",
				Target:         "datanode",
				Tool:           "hadoop_auto_operation",
				Operation:      "restart",
				Container:      "datanode",
				ExpectedResult: "DataNode service restarted",
			},
			{
				ID:             4,
				Action:         "verify",
				Description:    "Verify disk space and DataNode state",
				Target:         "datanode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-report"},
				ExpectedResult: "Sufficient space and DataNode running",
			},
		},
		Parameters: map[string]string{
			"datanode": "DataNode container to repair",
		},
	},
	"namenode_down": {
		FaultType:   "namenode_down",
		DisplayName: "NameNode offline",
		Description: "The NameNode process stopped running",
		Steps: []RepairStep{
			{
				ID:             1,
				Action:         "check_container",
				Description:    "Check the NameNode container state",
				Target:         "namenode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"docker", "ps", "-a", "--filter", "name=namenode"},
				ExpectedResult: "Confirm NameNode container state",
			},
			{
				ID:             2,
				Action:         "restart_service",
				Description:    "Restart the NameNode service",
				Target:         "namenode",
				Tool:           "hadoop_auto_operation",
				Operation:      "restart",
				Container:      "namenode",
				ExpectedResult: "NameNode service restarted",
			},
			{
				ID:             3,
				Action:         "verify",
				Description:    "Verify the NameNode responds again",
				Target:         "namenode",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-report"},
				ExpectedResult: "NameNode online and answering requests",
			},
		},
	},
	"multiple_datanodes_down": {
		FaultType:   "multiple_datanodes_down",
		DisplayName: "Multiple DataNodes offline",
		Description: "Several DataNodes stopped at the same time",
		Steps: []RepairStep{
			{
				ID:             1,
				Action:         "check_all_datanodes",
				Description:    "Check the state of every DataNode",
				Target:         "cluster",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-report"},
				ExpectedResult: "Confirm which DataNodes are dead",
			},
			{
				ID:             2,
				Action:         "restart_datanodes",
				Description:    "Restart each dead DataNode, one at a time",
				Target:         "datanode",
				Tool:           "hadoop_auto_operation",
				Operation:      "restart",
				Container:      "datanode",
				Note:           "Repeat for every dead DataNode",
				ExpectedResult: "All DataNode services restarted",
			},
			{
				ID:             3,
				Action:         "verify",
				Description:    "Verify all DataNodes are back online",
				Target:         "cluster",
				Tool:           "execute_hadoop_command",
				Command:        []string{"hdfs", "dfsadmin", "-report"},
				ExpectedResult: "All DataNodes reported as live",
			},
		},
		Parameters: map[string]string{
			"datanodes": "DataNode containers to repair (for example datanode1, datanode2)",
		},
	},
}

// RepairPlanFor returns the canned repair plan for a fault type.
func RepairPlanFor(faultType string) (RepairPlan, bool) {
	plan, ok := repairPlans[faultType]
	return plan, ok
}

// RepairPlanTypes returns the fault types that have a repair plan.
func RepairPlanTypes() []string {
	types := make([]string, 0, len(repairPlans))
	for _, ft := range library {
		if _, ok := repairPlans[ft.Name]; ok {
			types = append(types, ft.Name)
		}
	}
	return types
}
