package llm

import "context"

// Usage reports token consumption for one completion, split by cache
// behavior so the caller can price cached reads at their discount.
type Usage struct {
	InputTokens     int64
	OutputTokens    int64
	CacheReadTokens int64
	CacheWriteTokens int64
}

// Completion is the model's text answer plus its token accounting
type Completion struct {
	Text  string
	Usage Usage
}

// Request is a single-turn completion request. System is sent as a
// cacheable prompt prefix; ImageURLs are attached to the user message.
type Request struct {
	System    string
	Prompt    string
	ImageURLs []string
}

// Provider defines the interface for decision-model completion
type Provider interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Close() error
}
