package gateway

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/synod-io/synod/internal/config"
	"github.com/synod-io/synod/internal/logging"
)

// AnthropicGateway implements Gateway using the Anthropic Claude API.
type AnthropicGateway struct {
	client anthropic.Client
	cfg    config.GatewayConfig
	logger *logging.Logger
}

// NewAnthropic creates an Anthropic-backed gateway. The API key is read
// from the environment variable named by cfg.APIKeyEnv.
func NewAnthropic(cfg config.GatewayConfig) (*AnthropicGateway, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "ANTHROPIC_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key not set (environment variable %s)", keyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicGateway{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		logger: logging.GetLogger("gateway.anthropic"),
	}, nil
}

// Generate implements Gateway.Generate.
func (g *AnthropicGateway) Generate(ctx context.Context, req Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: int64(g.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(g.cfg.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	g.logger.DebugWithFields("model request",
		logging.Field("role", req.Role),
		logging.Field("prompt_bytes", len(req.Prompt)))

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var parts []string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "")

	g.logger.DebugWithFields("model response",
		logging.Field("role", req.Role),
		logging.Field("stop_reason", string(resp.StopReason)),
		logging.Field("output_tokens", resp.Usage.OutputTokens))

	return text, nil
}

// Name implements Gateway.Name.
func (g *AnthropicGateway) Name() string {
	return "anthropic"
}
