package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.SmallEmbedding3

// OpenAIProvider generates embeddings through the OpenAI API. It is the
// usual fallback behind Gemini in the provider chain.
type OpenAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAIProvider creates an OpenAI embedding provider. Empty model and
// zero dimensions fall back to text-embedding-3-small at the dimension the
// vector collections are built with.
func NewOpenAIProvider(apiKey, model string, dimensions int) (*OpenAIProvider, error) {
	p := &OpenAIProvider{
		client:     openai.NewClient(apiKey),
		model:      defaultOpenAIModel,
		dimensions: defaultDimensions,
	}
	if model != "" {
		p.model = openai.EmbeddingModel(model)
	}
	if dimensions > 0 {
		p.dimensions = dimensions
	}
	return p, nil
}

// Embed generates an embedding for a single text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      p.model,
		Dimensions: p.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}
	return vectors, nil
}

// Close releases resources
func (p *OpenAIProvider) Close() error {
	return nil
}
