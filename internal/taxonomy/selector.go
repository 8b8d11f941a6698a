package taxonomy

import (
	"github.com/synod-io/synod/internal/models"
)

// Expert names. These are the five diagnosis agents the selector can
// route to.
const (
	ExpertHDFS      = "hdfs_expert"
	ExpertYARN      = "yarn_expert"
	ExpertMapReduce = "mapreduce_expert"
	ExpertNetwork   = "network_expert"
	ExpertGeneric   = "generic_expert"
)

type expertMapping struct {
	primary []string
	related []string
}

// Selector maps fault types to the experts that should diagnose them.
// The table is built once from the fault library; selection is a pure
// lookup with no I/O and no failure mode.
type Selector struct {
	mapping map[string]expertMapping
}

// NewSelector builds the fault-to-expert table from the fault library.
func NewSelector() *Selector {
	mapping := make(map[string]expertMapping, len(library))

	for _, ft := range library {
		var primary []string
		switch ft.Category {
		case CategoryHDFS:
			primary = []string{ExpertHDFS}
		case CategoryYARN:
			primary = []string{ExpertYARN}
		case CategoryMapReduce:
			primary = []string{ExpertMapReduce}
		case CategoryNetwork:
			primary = []string{ExpertNetwork}
		default:
			primary = []string{ExpertGeneric}
		}

		var related []string
		switch ft.Name {
		case "datanode_down":
			// A lost datanode is often a connectivity problem.
			related = []string{ExpertNetwork}
		case "mapreduce_memory_insufficient", "mapreduce_disk_insufficient":
			// MapReduce resource exhaustion usually traces back to YARN
			// container sizing.
			related = []string{ExpertYARN}
		case "yarn_config_error":
			related = []string{ExpertNetwork}
		}

		mapping[ft.Name] = expertMapping{primary: primary, related: related}
	}

	return &Selector{mapping: mapping}
}

// Select returns the experts for a fault type, primary experts first.
// With includeRelated the related set is appended and the result
// de-duplicated, preserving primary-before-related order. Unknown fault
// types map to the generic expert.
func (s *Selector) Select(faultType string, includeRelated bool) []string {
	m, ok := s.mapping[faultType]
	if !ok {
		return []string{ExpertGeneric}
	}

	experts := append([]string{}, m.primary...)
	if includeRelated {
		experts = append(experts, m.related...)
	}

	seen := make(map[string]bool, len(experts))
	out := experts[:0]
	for _, e := range experts {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// PrimaryExpert returns the first primary expert for a fault type, or
// the generic expert when the fault type is unknown.
func (s *Selector) PrimaryExpert(faultType string) string {
	m, ok := s.mapping[faultType]
	if !ok || len(m.primary) == 0 {
		return ExpertGeneric
	}
	return m.primary[0]
}

// IdentifyRelatedFaults flags secondary fault types the primary fault
// may have caused, using the cluster snapshot as corroboration.
func (s *Selector) IdentifyRelatedFaults(primaryFault string, ctx *models.GlobalContext) []string {
	var related []string

	switch primaryFault {
	case "datanode_down":
		// A lost datanode drops replica counts once re-replication lags.
		if ctx != nil && ctx.ClusterState.HDFSStatus == "degraded" {
			related = append(related, "under_replicated_blocks")
		}
	case "mapreduce_memory_insufficient":
		// Memory-starved tasks stop reporting progress before they die.
		related = append(related, "mapreduce_task_timeout")
	}

	return related
}
