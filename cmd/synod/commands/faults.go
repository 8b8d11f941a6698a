package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synod-io/synod/internal/taxonomy"
)

var faultsCmd = &cobra.Command{
	Use:   "faults",
	Short: "List the known fault types and their expert routing",
	RunE:  runFaults,
}

func init() {
	rootCmd.AddCommand(faultsCmd)
}

func runFaults(cmd *cobra.Command, args []string) error {
	selector := taxonomy.NewSelector()

	for _, ft := range taxonomy.All() {
		experts := selector.Select(ft.Name, true)
		fmt.Printf("%-32s %-10s %-8s -> %v\n", ft.Name, ft.Category, ft.Severity, experts)
		fmt.Printf("    %s\n", ft.Description)
		if plan, ok := taxonomy.RepairPlanFor(ft.Name); ok {
			fmt.Printf("    repair plan: %d steps\n", len(plan.Steps))
		}
	}
	return nil
}
