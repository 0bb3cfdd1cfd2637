package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/oss-triage/gh-triage/internal/config"
)

// AnthropicProvider implements Provider using the Anthropic Messages API
type AnthropicProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicProvider creates a provider from config
func NewAnthropicProvider(cfg *config.AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not set")
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	return &AnthropicProvider{
		client:    &client,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}, nil
}

// Complete sends one user turn with an optional cacheable system prompt.
// The system block carries ephemeral cache control so repeated triage
// calls with the same taxonomy pay the cached-read rate.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Completion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(req.ImageURLs))
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))
	for _, url := range req.ImageURLs {
		blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: url}))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Text:         req.System,
				CacheControl: anthropic.NewCacheControlEphemeralParam(),
			},
		}
	}

	response, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Completion{
		Text: text,
		Usage: Usage{
			InputTokens:      response.Usage.InputTokens,
			OutputTokens:     response.Usage.OutputTokens,
			CacheReadTokens:  response.Usage.CacheReadInputTokens,
			CacheWriteTokens: response.Usage.CacheCreationInputTokens,
		},
	}, nil
}

// Close releases resources (none for the HTTP client)
func (p *AnthropicProvider) Close() error {
	return nil
}
