package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGateway implements Gateway with pre-scripted responses from a
// Scenario. It is deterministic given the same request sequence, which
// makes agent behavior testable without real API calls.
type MockGateway struct {
	scenario *Scenario
	matcher  *stepMatcher

	mu           sync.Mutex
	requestCount int
	requestLog   []RequestRecord
}

// RequestRecord captures one request/response pair for assertions.
type RequestRecord struct {
	Timestamp time.Time
	Role      string
	Prompt    string
	Response  string
	Err       string
}

// NewMock creates a MockGateway from a scenario file path.
func NewMock(scenarioPath string) (*MockGateway, error) {
	scenario, err := LoadScenario(scenarioPath)
	if err != nil {
		return nil, err
	}
	return NewMockFromScenario(scenario), nil
}

// NewMockFromScenario creates a MockGateway from a loaded scenario.
func NewMockFromScenario(scenario *Scenario) *MockGateway {
	return &MockGateway{
		scenario: scenario,
		matcher:  newStepMatcher(scenario),
	}
}

// Generate implements Gateway.Generate by matching the request against
// the scenario's remaining steps.
func (m *MockGateway) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.requestCount++
	step := m.matcher.nextStep(req)
	m.mu.Unlock()

	if step == nil {
		return "", fmt.Errorf("mock scenario %q has no step matching role=%q", m.scenario.Name, req.Role)
	}

	delay := m.scenario.Settings.DelayMs
	if step.DelayMs > 0 {
		delay = step.DelayMs
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(delay) * time.Millisecond):
		}
	}

	rec := RequestRecord{
		Timestamp: time.Now(),
		Role:      req.Role,
		Prompt:    truncate(req.Prompt, 200),
	}
	var err error
	if step.Error != "" {
		err = fmt.Errorf("%s", step.Error)
		rec.Err = step.Error
	} else {
		rec.Response = truncate(step.Text, 200)
	}

	m.mu.Lock()
	m.requestLog = append(m.requestLog, rec)
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	return step.Text, nil
}

// Name implements Gateway.Name.
func (m *MockGateway) Name() string {
	return fmt.Sprintf("mock:%s", m.scenario.Name)
}

// RequestLog returns a copy of the recorded request/response pairs.
func (m *MockGateway) RequestLog() []RequestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RequestRecord{}, m.requestLog...)
}

// RequestCount returns how many Generate calls were made.
func (m *MockGateway) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// Reset rewinds the scenario for a fresh run.
func (m *MockGateway) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matcher.reset()
	m.requestCount = 0
	m.requestLog = nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Ensure MockGateway implements Gateway at compile time.
var _ Gateway = (*MockGateway)(nil)
