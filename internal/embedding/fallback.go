package embedding

import (
	"context"
	"fmt"
	"log"

	"github.com/oss-triage/gh-triage/internal/config"
)

// FallbackProvider tries a chain of providers in order until one
// succeeds. A single degraded embedding vendor must not stall triage.
type FallbackProvider struct {
	chain []chainEntry
}

type chainEntry struct {
	name     string
	provider Provider
}

// NewFallbackProvider builds the chain from the primary config plus an
// optional fallback. A broken fallback is logged and skipped; a broken
// primary is an error.
func NewFallbackProvider(cfg *config.EmbeddingConfig) (*FallbackProvider, error) {
	primary, err := newProvider(&cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary provider: %w", err)
	}

	chain := []chainEntry{{name: cfg.Primary.Provider, provider: primary}}

	if cfg.Fallback.Provider != "" && cfg.Fallback.APIKey != "" {
		fallback, err := newProvider(&cfg.Fallback)
		if err != nil {
			log.Printf("Warning: failed to create fallback provider: %v", err)
		} else {
			chain = append(chain, chainEntry{name: cfg.Fallback.Provider, provider: fallback})
		}
	}

	return &FallbackProvider{chain: chain}, nil
}

func newProvider(cfg *config.ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(cfg.APIKey, cfg.Model, cfg.Dimensions)
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// Embed generates an embedding, falling through the chain on failure
func (p *FallbackProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for i, entry := range p.chain {
		vector, err := entry.provider.Embed(ctx, text)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		if i < len(p.chain)-1 {
			log.Printf("%s embedding failed, trying next provider: %v", entry.name, err)
		}
	}
	return nil, fmt.Errorf("all embedding providers failed: %w", lastErr)
}

// EmbedBatch generates embeddings for multiple texts, falling through
// the chain on failure
func (p *FallbackProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for i, entry := range p.chain {
		vectors, err := entry.provider.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if i < len(p.chain)-1 {
			log.Printf("%s batch embedding failed, trying next provider: %v", entry.name, err)
		}
	}
	return nil, fmt.Errorf("all embedding providers failed: %w", lastErr)
}

// Close releases every provider in the chain
func (p *FallbackProvider) Close() error {
	var firstErr error
	for _, entry := range p.chain {
		if err := entry.provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
