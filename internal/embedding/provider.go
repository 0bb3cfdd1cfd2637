package embedding

import (
	"context"
	"fmt"
)

// Provider defines the interface for embedding generation
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// PrepareIssueText combines title and body for embedding
func PrepareIssueText(title, body string) string {
	text := fmt.Sprintf("Title: %s\n\nBody: %s", title, body)

	// Truncate to ~6000 chars (~1500 tokens) to stay within limits
	if len(text) > 6000 {
		text = text[:6000] + "..."
	}

	return text
}

// PrepareChunkText formats a code or doc chunk for embedding. The
// filename prefix lets the model anchor the snippet to its location.
func PrepareChunkText(filename, content string) string {
	text := fmt.Sprintf("File: %s\n\n%s", filename, content)

	if len(text) > 6000 {
		text = text[:6000] + "..."
	}

	return text
}
