package gateway

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a sequence of mock gateway responses loaded from YAML.
type Scenario struct {
	// Name is the scenario identifier.
	Name string `yaml:"name"`

	// Description is a human-readable description of what the scenario
	// exercises.
	Description string `yaml:"description,omitempty"`

	// Settings contains global timing settings.
	Settings ScenarioSettings `yaml:"settings,omitempty"`

	// Steps defines the sequence of mock responses.
	Steps []ScenarioStep `yaml:"steps"`
}

// ScenarioSettings contains global timing settings.
type ScenarioSettings struct {
	// DelayMs is the delay in milliseconds before each response.
	DelayMs int `yaml:"delay_ms,omitempty"`
}

// ScenarioStep defines a single mock response.
type ScenarioStep struct {
	// Role restricts this step to requests carrying the given role hint
	// ("classifier", "hdfs_expert", "discussion", ...). Empty matches any
	// role.
	Role string `yaml:"role,omitempty"`

	// Trigger is an optional substring that must be present in the
	// request prompt to activate this step. Empty means the step matches
	// any prompt.
	Trigger string `yaml:"trigger,omitempty"`

	// Text is the scripted model response.
	Text string `yaml:"text,omitempty"`

	// Error, when set, makes the mock fail the request with this message
	// instead of responding. Used to script gateway failures.
	Error string `yaml:"error,omitempty"`

	// DelayMs overrides the scenario delay for this step. Used to script
	// per-expert latencies in concurrency tests.
	DelayMs int `yaml:"delay_ms,omitempty"`

	// Repeat lets the same step answer multiple matching requests.
	// Zero or one means single use.
	Repeat int `yaml:"repeat,omitempty"`
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	// #nosec G304 -- scenario file path is intentionally configurable
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// Validate checks that the scenario is valid.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario must have at least one step")
	}

	for i, step := range s.Steps {
		if step.Text == "" && step.Error == "" {
			return fmt.Errorf("step[%d]: must have either text or error", i)
		}
		if step.Text != "" && step.Error != "" {
			return fmt.Errorf("step[%d]: text and error are mutually exclusive", i)
		}
	}

	return nil
}

// stepMatcher picks the next scenario step for a request. Steps are
// consumed in order within a (role, trigger) match; a step with Repeat
// can serve several requests.
type stepMatcher struct {
	scenario *Scenario
	used     []int
}

func newStepMatcher(scenario *Scenario) *stepMatcher {
	return &stepMatcher{
		scenario: scenario,
		used:     make([]int, len(scenario.Steps)),
	}
}

func (m *stepMatcher) nextStep(req Request) *ScenarioStep {
	for i := range m.scenario.Steps {
		step := &m.scenario.Steps[i]

		limit := step.Repeat
		if limit < 1 {
			limit = 1
		}
		if m.used[i] >= limit {
			continue
		}
		if !m.matches(step, req) {
			continue
		}

		m.used[i]++
		return step
	}
	return nil
}

func (m *stepMatcher) matches(step *ScenarioStep, req Request) bool {
	if step.Role != "" && step.Role != req.Role {
		return false
	}
	if step.Trigger != "" {
		content := strings.ToLower(req.SystemPrompt + "\n" + req.Prompt)
		if !strings.Contains(content, strings.ToLower(step.Trigger)) {
			return false
		}
	}
	return true
}

func (m *stepMatcher) reset() {
	m.used = make([]int, len(m.scenario.Steps))
}
