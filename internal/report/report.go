// Package report renders a diagnosis report as human-readable Markdown.
// Formatting is deterministic: the same report always produces the same
// text.
package report

import (
	"fmt"
	"strings"

	"github.com/synod-io/synod/internal/models"
)

// Format renders the report for terminal or chat display.
func Format(r *models.DiagnosisReport) string {
	var b strings.Builder

	b.WriteString("## Fault classification\n")
	fmt.Fprintf(&b, "**Fault type**: %s\n", r.Classification.FaultType)
	fmt.Fprintf(&b, "**Confidence**: %s\n", percent(r.Classification.Confidence))
	fmt.Fprintf(&b, "**Category**: %s\n", r.Classification.Category)
	if r.Classification.Reasoning != "" {
		fmt.Fprintf(&b, "**Reasoning**: %s\n", r.Classification.Reasoning)
	}
	b.WriteString("\n")

	if r.Error != "" {
		b.WriteString("## Diagnosis failed\n")
		fmt.Fprintf(&b, "%s\n\n", r.Error)
	}

	if len(r.ExpertDiagnoses) > 0 {
		b.WriteString("## Expert diagnoses\n")
		for _, d := range r.ExpertDiagnoses {
			fmt.Fprintf(&b, "\n### %s\n", d.ExpertName)
			if d.DiagnosisText != "" {
				b.WriteString(d.DiagnosisText)
				b.WriteString("\n")
			} else {
				fmt.Fprintf(&b, "**Root cause**: %s\n", d.RootCause)
				writeList(&b, "**Evidence**:", d.Evidence)
				writeList(&b, "**Fix steps**:", d.FixSteps)
				fmt.Fprintf(&b, "**Confidence**: %s\n", percent(d.Confidence))
			}
		}
		b.WriteString("\n")
	}

	if len(r.FailedExperts) > 0 {
		b.WriteString("## Failed experts\n")
		for _, m := range r.FailedExperts {
			fmt.Fprintf(&b, "- %s: %s\n", m.ExpertName, m.Error)
		}
		b.WriteString("\n")
	}

	if d := r.Discussion; d != nil {
		b.WriteString("## Consensus\n")
		if d.Consensus {
			b.WriteString("The experts agree.\n")
		} else {
			b.WriteString("The experts disagree.\n")
			writeList(&b, "**Conflicts**:", d.Conflicts)
		}
		fmt.Fprintf(&b, "\n**Final root cause**: %s\n", d.FinalRootCause)
		writeList(&b, "\n**Final evidence**:", d.FinalEvidence)
		writeList(&b, "\n**Final fix steps**:", d.FinalFixSteps)
		fmt.Fprintf(&b, "\n**Overall confidence**: %s\n", percent(d.Confidence))
		writeList(&b, "\n**Compound faults**:", d.CompoundFaults)
		b.WriteString("\n")
	}

	b.WriteString("## Cluster snapshot\n")
	state := r.GlobalContext.ClusterState
	fmt.Fprintf(&b, "- DataNodes: %d live, %d dead\n",
		state.DataNodeCount.Live, state.DataNodeCount.Dead)
	fmt.Fprintf(&b, "- HDFS status: %s\n", state.HDFSStatus)
	if !r.GlobalContext.Timestamp.IsZero() {
		fmt.Fprintf(&b, "- Collected: %s\n", r.GlobalContext.Timestamp.Format("2006-01-02 15:04:05"))
	}

	return b.String()
}

func writeList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(header)
	b.WriteString("\n")
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
