// Package classify implements the fault classification agent. It makes
// a single model call over the cluster snapshot and maps the answer
// onto the fault-type library.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/synod-io/synod/internal/agent"
	"github.com/synod-io/synod/internal/audit"
	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/models"
	"github.com/synod-io/synod/internal/taxonomy"
)

const (
	roleName = "classifier"

	// logPreviewBytes bounds how much of each node's log goes into the
	// prompt.
	logPreviewBytes = 2000
)

// Classifier determines the most likely fault type from a snapshot.
type Classifier struct {
	gateway gateway.Gateway
	audit   *audit.Logger
	logger  *logging.Logger
}

// New creates a classifier. audit may be nil.
func New(gw gateway.Gateway, auditLog *audit.Logger) *Classifier {
	return &Classifier{
		gateway: gw,
		audit:   auditLog,
		logger:  logging.GetLogger("agent.classifier"),
	}
}

// Classify runs one classification. It never returns an error: a failed
// model call or unparseable output degrades to the unknown fault with
// zero confidence, and the pipeline continues with the generic expert.
func (c *Classifier) Classify(ctx context.Context, snapshot *models.GlobalContext, userQuery string) *models.ClassificationResult {
	prompt := buildPrompt(snapshot, userQuery)

	text, err := c.gateway.Generate(ctx, gateway.Request{
		SystemPrompt: systemPrompt(),
		Prompt:       prompt,
		Role:         roleName,
	})
	c.audit.LogModelRequest(roleName, roleName, len(prompt), err)
	if err != nil {
		c.logger.WarnWithFields("classification model call failed",
			logging.Field("error", err.Error()))
		return unknownResult(fmt.Sprintf("classification failed: %v", err))
	}

	result := parseResult(text)
	c.logger.InfoWithFields("classification complete",
		logging.Field("fault_type", result.FaultType),
		logging.Field("category", result.Category),
		logging.Field("confidence", result.Confidence))
	return result
}

// unknownResult is the degraded classification used when the model call
// or its parse fails. Confidence zero routes selection to the generic
// expert.
func unknownResult(reasoning string) *models.ClassificationResult {
	return &models.ClassificationResult{
		FaultType:  "unknown",
		Confidence: 0,
		Category:   taxonomy.CategoryGeneric,
		Reasoning:  reasoning,
	}
}

// parseResult maps model output onto a ClassificationResult, filling
// every missing field with a usable default.
func parseResult(text string) *models.ClassificationResult {
	obj, ok := agent.ExtractObject(text)
	if !ok {
		return unknownResult("classifier returned no parseable JSON")
	}

	faultType, ok := agent.StringField(obj, "fault_type")
	if !ok || faultType == "" {
		return unknownResult("classifier output missing fault_type")
	}

	confidence, ok := agent.FloatField(obj, "confidence")
	if !ok {
		confidence = 0.5
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	category, ok := agent.StringField(obj, "category")
	if !ok || category == "" {
		category = taxonomy.CategoryOf(faultType)
	}

	reasoning, _ := agent.StringField(obj, "reasoning")

	return &models.ClassificationResult{
		FaultType:     faultType,
		Confidence:    confidence,
		Category:      category,
		RelatedFaults: agent.StringSliceField(obj, "related_faults"),
		Reasoning:     reasoning,
	}
}

// systemPrompt renders the classifier persona with the full fault-type
// library so the model answers in library vocabulary.
func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a Hadoop cluster fault classifier. ")
	b.WriteString("Given logs, metrics and cluster state, identify the single most likely fault type.\n\n")
	b.WriteString("Known fault types:\n")
	for _, ft := range taxonomy.All() {
		fmt.Fprintf(&b, "- %s (%s, category %s, severity %s): %s. Typical symptoms: %s\n",
			ft.Name, ft.DisplayName, ft.Category, ft.Severity, ft.Description,
			strings.Join(ft.Symptoms, "; "))
	}
	b.WriteString("\nIf none match, answer with fault_type \"unknown\".\n")
	b.WriteString("Respond with a single JSON object and nothing else:\n")
	b.WriteString(`{"fault_type": "...", "confidence": 0.0, "category": "...", "related_faults": [], "reasoning": "..."}`)
	return b.String()
}

// buildPrompt renders the snapshot into the classification request.
// Node order is sorted so identical snapshots produce identical prompts.
func buildPrompt(snapshot *models.GlobalContext, userQuery string) string {
	var b strings.Builder

	if userQuery != "" {
		fmt.Fprintf(&b, "User report: %s\n\n", userQuery)
	}

	b.WriteString("## Cluster state\n")
	state, _ := json.Marshal(snapshot.ClusterState)
	b.Write(state)
	b.WriteString("\n\n## Recent logs\n")
	for _, node := range sortedKeys(snapshot.Logs) {
		fmt.Fprintf(&b, "### %s\n%s\n\n", node, tail(snapshot.Logs[node], logPreviewBytes))
	}

	b.WriteString("## Metrics\n")
	for _, node := range sortedMetricKeys(snapshot.Metrics) {
		nm := snapshot.Metrics[node]
		if nm.Status != "ok" {
			fmt.Fprintf(&b, "### %s: collection failed (%s)\n", node, nm.Error)
			continue
		}
		data, _ := json.Marshal(nm.Metrics)
		fmt.Fprintf(&b, "### %s\n%s\n", node, data)
	}

	b.WriteString("\nClassify the fault. Respond with the JSON object only.")
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMetricKeys(m map[string]models.NodeMetrics) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// tail keeps roughly the last n bytes of s, cut on a rune boundary so
// multi-byte log content survives intact. Logs matter most at the end.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return "..." + s[cut:]
}
