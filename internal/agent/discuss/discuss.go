// Package discuss implements the consensus discussion agent. It takes
// the valid expert diagnoses, makes one model call to reconcile them,
// and parses the answer into a DiscussionResult with every required
// field filled.
package discuss

import (
	"context"
	"fmt"
	"strings"

	"github.com/synod-io/synod/internal/agent"
	"github.com/synod-io/synod/internal/audit"
	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/models"
)

const (
	roleName = "discussion"

	// diagnosisPreviewBytes bounds each expert's prose in the prompt.
	diagnosisPreviewBytes = 500
)

// Defaults back-filled when the model omits fields or cannot be parsed
// at all.
const (
	defaultRootCause      = "未明确说明"
	backfillConfidence    = 0.8
	safeDefaultConfidence = 0.5
)

// Moderator runs the discussion stage.
type Moderator struct {
	gateway gateway.Gateway
	audit   *audit.Logger
	logger  *logging.Logger
}

// New creates a moderator. audit may be nil.
func New(gw gateway.Gateway, auditLog *audit.Logger) *Moderator {
	return &Moderator{
		gateway: gw,
		audit:   auditLog,
		logger:  logging.GetLogger("agent.discussion"),
	}
}

// Discuss synthesizes a consensus from N >= 1 valid diagnoses. It never
// returns an error: a failed model call or unparseable output yields
// the safe default result with halved confidence, so the pipeline
// always reaches formatting.
func (m *Moderator) Discuss(ctx context.Context, faultType string, diagnoses []models.ExpertDiagnosis, state models.ClusterState) *models.DiscussionResult {
	prompt := buildPrompt(faultType, diagnoses, state)

	text, err := m.gateway.Generate(ctx, gateway.Request{
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		Role:         roleName,
	})
	m.audit.LogModelRequest(roleName, roleName, len(prompt), err)
	if err != nil {
		m.logger.WarnWithFields("discussion model call failed",
			logging.Field("error", err.Error()))
		return safeDefault(fmt.Sprintf("discussion failed: %v", err))
	}

	result := parseResult(text)
	m.audit.LogDiscussion(result.Consensus, result.Confidence, len(result.Conflicts))
	return result
}

// safeDefault is the recovery result used when discussion output is
// unusable. Consensus true with low confidence keeps the report
// readable without overstating certainty.
func safeDefault(reason string) *models.DiscussionResult {
	return &models.DiscussionResult{
		Consensus:      true,
		FinalRootCause: reason,
		FinalEvidence:  []string{"详见各专家诊断"},
		FinalFixSteps:  []string{"详见各专家诊断"},
		Confidence:     safeDefaultConfidence,
	}
}

// parseResult maps model output onto a DiscussionResult, back-filling
// every missing field.
func parseResult(text string) *models.DiscussionResult {
	obj, ok := agent.ExtractObject(text)
	if !ok {
		return safeDefault("parse failed: discussion returned no parseable JSON")
	}

	consensus, ok := agent.BoolField(obj, "consensus")
	if !ok {
		consensus = true
	}

	rootCause, ok := agent.StringField(obj, "final_root_cause")
	if !ok || rootCause == "" {
		rootCause = defaultRootCause
	}

	confidence, ok := agent.FloatField(obj, "confidence")
	if !ok {
		confidence = backfillConfidence
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return &models.DiscussionResult{
		Consensus:       consensus,
		FinalRootCause:  rootCause,
		FinalEvidence:   agent.StringSliceField(obj, "final_evidence"),
		FinalFixSteps:   agent.StringSliceField(obj, "final_fix_steps"),
		Confidence:      confidence,
		Conflicts:       agent.StringSliceField(obj, "conflicts"),
		CompoundFaults:  agent.StringSliceField(obj, "compound_faults"),
		ExpertAgreement: agent.FloatMapField(obj, "expert_agreement"),
	}
}

const systemPrompt = `You are the moderator of a Hadoop fault diagnosis panel. Several domain experts have produced independent diagnoses for the same incident. Your job:
1. Decide whether the experts agree on the root cause (consensus).
2. If they disagree, enumerate the concrete conflicts.
3. Cross-reference the diagnoses against the cluster state and note any compound faults (several simultaneous problems).
4. Merge the diagnoses into one final root cause, one evidence list and one ordered fix-step list.
5. Give one overall confidence between 0.0 and 1.0.

Respond with a single JSON object and nothing else:
{"consensus": true, "final_root_cause": "...", "final_evidence": [], "final_fix_steps": [], "confidence": 0.0, "conflicts": [], "compound_faults": [], "expert_agreement": {"hdfs_expert": 0.9}}`

// buildPrompt renders the discussion request: each diagnosis with its
// structured fields and a prose preview, plus the cluster state for
// cross-checking.
func buildPrompt(faultType string, diagnoses []models.ExpertDiagnosis, state models.ClusterState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Classified fault\n%s\n\n", faultType)

	b.WriteString("## Expert diagnoses\n")
	for _, d := range diagnoses {
		fmt.Fprintf(&b, "### %s (confidence %.2f)\n", d.ExpertName, d.Confidence)
		fmt.Fprintf(&b, "Root cause: %s\n", d.RootCause)
		if len(d.Evidence) > 0 {
			fmt.Fprintf(&b, "Evidence: %s\n", strings.Join(d.Evidence, "; "))
		}
		if len(d.FixSteps) > 0 {
			fmt.Fprintf(&b, "Fix steps: %s\n", strings.Join(d.FixSteps, "; "))
		}
		if d.DiagnosisText != "" {
			preview := d.DiagnosisText
			if len(preview) > diagnosisPreviewBytes {
				preview = preview[:diagnosisPreviewBytes] + "..."
			}
			fmt.Fprintf(&b, "Full text preview: %s\n", preview)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Cluster state\n")
	fmt.Fprintf(&b, "- DataNodes: %d live, %d dead\n",
		state.DataNodeCount.Live, state.DataNodeCount.Dead)
	fmt.Fprintf(&b, "- HDFS status: %s\n\n", state.HDFSStatus)

	b.WriteString("Synthesize the final result. Respond with the JSON object only.")
	return b.String()
}
