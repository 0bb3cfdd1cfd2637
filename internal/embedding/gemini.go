package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-embedding-001"

	// defaultDimensions matches the vector size the collections are
	// created with; both providers must emit the same width.
	defaultDimensions = 768
)

// GeminiProvider generates embeddings through the Gemini API
type GeminiProvider struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiProvider creates a Gemini embedding provider. Empty model and
// zero dimensions fall back to the defaults above.
func NewGeminiProvider(apiKey, model string, dimensions int) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p := &GeminiProvider{
		client:     client,
		model:      defaultGeminiModel,
		dimensions: defaultDimensions,
	}
	if model != "" {
		p.model = model
	}
	if dimensions > 0 {
		p.dimensions = dimensions
	}
	return p, nil
}

// Embed generates an embedding for a single text
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request
func (p *GeminiProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{
			Parts: []*genai.Part{{Text: text}},
		}
	}

	dims := int32(p.dimensions)
	result, err := p.client.Models.EmbedContent(ctx, p.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Close releases resources
func (p *GeminiProvider) Close() error {
	return nil
}
