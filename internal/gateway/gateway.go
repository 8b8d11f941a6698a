// Package gateway abstracts the LLM backend behind a single Generate
// call. Agents are pure prompt-in, text-out; everything provider
// specific (auth, wire format, retries) stays behind this interface.
package gateway

import (
	"context"
)

// Request is a single generation request. Prompts are fully rendered by
// the caller; the gateway never inspects or rewrites them.
type Request struct {
	// SystemPrompt sets the agent persona. May be empty.
	SystemPrompt string

	// Prompt is the user-turn content.
	Prompt string

	// Role is an advisory hint naming the requesting agent
	// ("classifier", "hdfs_expert", ...). It is logged and audited but
	// carries no routing semantics.
	Role string
}

// Gateway generates model completions.
//
// Generate returns the raw completion text. Any error is a transport or
// provider failure; malformed model output is NOT an error here, tolerant
// parsing is the caller's job.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)

	// Name identifies the backend for logging ("anthropic", "mock:...").
	Name() string
}
