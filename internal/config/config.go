// Package config holds the runtime configuration for synod and its
// YAML loader.
package config

import (
	"fmt"
	"time"
)

// GatewayConfig configures the model gateway.
type GatewayConfig struct {
	// Provider selects the gateway implementation: "anthropic" or "mock".
	Provider string `yaml:"provider"`

	// Model is the model identifier sent to the provider.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL overrides the provider endpoint. Empty means the provider
	// default.
	BaseURL string `yaml:"base_url"`

	// Temperature for all generation requests. Diagnosis wants
	// reproducibility, so the default is 0.
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the response length per request.
	MaxTokens int `yaml:"max_tokens"`

	// ScenarioPath points at a YAML scenario file when Provider is "mock".
	ScenarioPath string `yaml:"scenario_path"`
}

// AgentConfig bounds the reasoning agents.
type AgentConfig struct {
	// MaxToolCalls is the per-agent tool call budget. An agent that asks
	// for one more call than this receives a limit-exceeded result and
	// must answer with what it has.
	MaxToolCalls int `yaml:"max_tool_calls"`

	// ExpertTimeout bounds a single expert invocation during fan-out.
	ExpertTimeout time.Duration `yaml:"expert_timeout"`
}

// CollectorConfig describes where cluster context is collected from.
type CollectorConfig struct {
	// LogNodes maps node name to container name for log collection.
	LogNodes map[string]string `yaml:"log_nodes"`

	// JMXEndpoints maps node name to the JMX servlet URL queried for
	// monitoring metrics.
	JMXEndpoints map[string]string `yaml:"jmx_endpoints"`

	// LogTailLines is how many trailing log lines are captured per node.
	LogTailLines int `yaml:"log_tail_lines"`

	// HTTPTimeout bounds each JMX request.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// ArchiveDir, when set, receives a JSON copy of every collected
	// snapshot. Archiving is fire and forget.
	ArchiveDir string `yaml:"archive_dir"`
}

// Config holds all configuration for the application.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Agent     AgentConfig     `yaml:"agent"`
	Collector CollectorConfig `yaml:"collector"`

	// AuditLogPath is the JSONL audit log destination. Empty disables
	// audit logging.
	AuditLogPath string `yaml:"audit_log_path"`

	// LogLevel is the default logging level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-20250514",
			APIKeyEnv:   "ANTHROPIC_API_KEY",
			Temperature: 0,
			MaxTokens:   4096,
		},
		Agent: AgentConfig{
			MaxToolCalls:  2,
			ExpertTimeout: 120 * time.Second,
		},
		Collector: CollectorConfig{
			LogTailLines: 200,
			HTTPTimeout:  10 * time.Second,
		},
		LogLevel: "info",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Gateway.Provider {
	case "anthropic", "mock":
	default:
		return NewConfigError(fmt.Sprintf("gateway.provider must be \"anthropic\" or \"mock\", got %q", c.Gateway.Provider))
	}

	if c.Gateway.Provider == "mock" && c.Gateway.ScenarioPath == "" {
		return NewConfigError("gateway.scenario_path must be set when provider is \"mock\"")
	}

	if c.Gateway.Provider == "anthropic" && c.Gateway.Model == "" {
		return NewConfigError("gateway.model must not be empty")
	}

	if c.Gateway.Temperature < 0 || c.Gateway.Temperature > 1 {
		return NewConfigError("gateway.temperature must be between 0 and 1")
	}

	if c.Gateway.MaxTokens < 1 {
		return NewConfigError("gateway.max_tokens must be at least 1")
	}

	if c.Agent.MaxToolCalls < 0 {
		return NewConfigError("agent.max_tool_calls must not be negative")
	}

	if c.Agent.ExpertTimeout <= 0 {
		return NewConfigError("agent.expert_timeout must be positive")
	}

	if c.Collector.LogTailLines < 1 {
		return NewConfigError("collector.log_tail_lines must be at least 1")
	}

	if c.Collector.HTTPTimeout <= 0 {
		return NewConfigError("collector.http_timeout must be positive")
	}

	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	return e.message
}
