package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = `You help someone explore an unfamiliar web application. Reply with short, specific questions about where things are and how to reach them, one per line.`

// ClaudeBackend implements Backend using Anthropic's Claude
type ClaudeBackend struct {
	client *anthropic.Client
	model  string
}

// NewClaudeBackend creates a new Claude backend
func NewClaudeBackend(model, apiKey string) (*ClaudeBackend, error) {
	if apiKey == "" {
		return nil, errors.New("UISCOUT_ANTHROPIC_API_KEY or ANTHROPIC_API_KEY environment variable required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &ClaudeBackend{
		client: &client,
		model:  model,
	}, nil
}

// Generate sends prompt as a single user turn and returns the first text block
func (b *ClaudeBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   int64(opts.MaxNewTokens),
		Temperature: anthropic.Float(opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	return "", errors.New("empty response from Claude")
}
