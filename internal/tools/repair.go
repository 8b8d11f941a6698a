package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/synod-io/synod/internal/taxonomy"
)

// repairPlanTool renders the canned repair plan for a fault type.
type repairPlanTool struct{}

func (t *repairPlanTool) Name() string { return "generate_repair_plan" }

func (t *repairPlanTool) Description() string {
	return "Generate an ordered repair plan for a known fault type, with the commands for each step. Supported fault types: " +
		strings.Join(taxonomy.RepairPlanTypes(), ", ") + "."
}

func (t *repairPlanTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"fault_type"},
		"properties": map[string]interface{}{
			"fault_type": map[string]interface{}{
				"type":        "string",
				"description": "Fault type identifier, for example datanode_down",
			},
			"diagnosis_info": map[string]interface{}{
				"type":        "string",
				"description": "Free-form diagnosis context echoed into the plan",
			},
			"affected_nodes": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Nodes the plan should target",
			},
		},
	}
}

func (t *repairPlanTool) Execute(_ context.Context, input json.RawMessage) (*Result, error) {
	var args struct {
		FaultType     string   `json:"fault_type"`
		DiagnosisInfo string   `json:"diagnosis_info"`
		AffectedNodes []string `json:"affected_nodes"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if args.FaultType == "" {
		return &Result{Success: false, Error: "fault_type is required"}, nil
	}

	plan, ok := taxonomy.RepairPlanFor(args.FaultType)
	if !ok {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("no repair plan for fault type %q (supported: %s)", args.FaultType, strings.Join(taxonomy.RepairPlanTypes(), ", ")),
		}, nil
	}

	data := map[string]interface{}{
		"plan": plan,
	}
	if args.DiagnosisInfo != "" {
		data["diagnosis_info"] = args.DiagnosisInfo
	}
	if len(args.AffectedNodes) > 0 {
		data["affected_nodes"] = args.AffectedNodes
	}

	return &Result{
		Success: true,
		Data:    data,
		Summary: fmt.Sprintf("Repair plan for %s with %d steps", args.FaultType, len(plan.Steps)),
	}, nil
}
