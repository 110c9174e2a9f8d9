package ai

import (
	"context"
	"fmt"
)

// Options tunes one generation call.
type Options struct {
	MaxNewTokens int
	Temperature  float64
}

// DefaultOptions mirrors the sampling settings used for question generation.
func DefaultOptions() Options {
	return Options{MaxNewTokens: 100, Temperature: 0.7}
}

// Backend generates free text from a prompt. Sampling is always enabled.
type Backend interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// NewBackend creates a text-generation backend based on the provider name
func NewBackend(name, model, apiKey string) (Backend, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeBackend(model, apiKey)
	case "openai", "gpt":
		return NewOpenAIBackend(model, apiKey)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}
