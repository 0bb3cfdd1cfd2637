package triage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/oss-triage/gh-triage/internal/llm"
	"github.com/oss-triage/gh-triage/internal/store"
	"github.com/oss-triage/gh-triage/pkg/models"
)

type fakeLLM struct {
	response string
	usage    llm.Usage
	err      error
	calls    int
	lastReq  llm.Request
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{Text: f.response, Usage: f.usage}, nil
}

func (f *fakeLLM) Close() error { return nil }

type fakeRefs struct{}

func (fakeRefs) FetchIssueExcerpt(ctx context.Context, org, repo string, number int) (*github.RefExcerpt, error) {
	return &github.RefExcerpt{Title: "Referenced issue", Excerpt: "excerpt body"}, nil
}

func (fakeRefs) FetchFileExcerpt(ctx context.Context, org, repo, ref, path string) (*github.RefExcerpt, error) {
	return &github.RefExcerpt{Title: path, Excerpt: "file content"}, nil
}

func deciderConfig() config.TriageConfig {
	return config.TriageConfig{
		DuplicateThreshold:   0.95,
		DocsThreshold:        0.80,
		CodeThreshold:        0.80,
		ResponseCacheTTLDays: 7,
		RuleCostSaved:        0.02,
		CacheCostSaved:       0.015,
		BodyPromptLimit:      2000,
		MaxImages:            3,
		MaxRefLinks:          5,
		Pricing: config.PricingConfig{
			InputPerMTok:         3.0,
			OutputPerMTok:        15.0,
			CacheWriteMultiplier: 1.25,
			CacheReadMultiplier:  0.1,
		},
	}
}

const validResponse = `{
	"decision": "VALID_FEATURE",
	"primary_message": "Reasonable feature request",
	"evidence_bullets": ["No similar issue", "Fits roadmap"],
	"draft_response": "Thanks! We'll consider this.",
	"action_button_text": "Add to Roadmap",
	"action_button_style": "primary"
}`

func TestDecider_ParsesModelResponse(t *testing.T) {
	provider := &fakeLLM{
		response: validResponse,
		usage:    llm.Usage{InputTokens: 1000, OutputTokens: 200},
	}
	d := NewDecider(provider, store.NewMemoryStore(), nil, deciderConfig())

	issue := &models.Issue{Number: 1, Title: "Add export to CSV", Body: "please add csv"}
	decision := d.Decide(context.Background(), issue, &models.EvidenceBundle{}, SearchContext{})

	assert.Equal(t, DecisionValidFeature, decision.Kind)
	assert.False(t, decision.FromCache)
	assert.Empty(t, decision.Error)
	require.NotNil(t, decision.Cost)
	assert.InDelta(t, 1000.0/1_000_000*3, decision.Cost.InputCostUSD, 1e-9)
	assert.InDelta(t, 200.0/1_000_000*15, decision.Cost.OutputCostUSD, 1e-9)
}

func TestDecider_StripsCodeFences(t *testing.T) {
	provider := &fakeLLM{response: "```json\n" + validResponse + "\n```"}
	d := NewDecider(provider, nil, nil, deciderConfig())

	decision := d.Decide(context.Background(), &models.Issue{Title: "t"}, &models.EvidenceBundle{}, SearchContext{})
	assert.Equal(t, DecisionValidFeature, decision.Kind)
}

func TestDecider_IdempotentCaching(t *testing.T) {
	provider := &fakeLLM{
		response: validResponse,
		usage:    llm.Usage{InputTokens: 500, OutputTokens: 100},
	}
	cfg := deciderConfig()
	d := NewDecider(provider, store.NewMemoryStore(), nil, cfg)

	issue := &models.Issue{Number: 9, Title: "Add export", Body: "body"}
	bundle := &models.EvidenceBundle{
		Issues: []models.EvidenceItem{{Kind: models.EvidenceIssue, Number: 2, Similarity: 0.7}},
	}

	first := d.Decide(context.Background(), issue, bundle, SearchContext{})
	second := d.Decide(context.Background(), issue, bundle, SearchContext{})

	assert.Equal(t, 1, provider.calls, "second call must not reach the model")
	assert.True(t, second.FromCache)
	assert.Nil(t, second.Cost, "a cache hit has no token cost")
	assert.InDelta(t, cfg.CacheCostSaved, second.CostSaved, 1e-9)
	assert.Equal(t, first.Kind, second.Kind)
	assert.Equal(t, first.PrimaryMessage, second.PrimaryMessage)
}

func TestDecider_CacheKeySensitivity(t *testing.T) {
	issue := &models.Issue{Number: 1, Title: "Original title", Body: "body"}
	bundle := &models.EvidenceBundle{
		Issues: []models.EvidenceItem{{Kind: models.EvidenceIssue, Number: 2, Similarity: 0.7}},
	}

	base := responseCacheKey(issue, bundle)

	retitled := *issue
	retitled.Title = "Changed title"
	assert.NotEqual(t, base, responseCacheKey(&retitled, bundle))

	// Different top evidence, same issue
	shifted := &models.EvidenceBundle{
		Issues: []models.EvidenceItem{{Kind: models.EvidenceIssue, Number: 3, Similarity: 0.7}},
	}
	assert.NotEqual(t, base, responseCacheKey(issue, shifted))
}

func TestDecider_FallbackOnLLMError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("api unavailable")}
	d := NewDecider(provider, store.NewMemoryStore(), nil, deciderConfig())

	decision := d.Decide(context.Background(), &models.Issue{Title: "t"}, &models.EvidenceBundle{}, SearchContext{})

	assert.Equal(t, DecisionNeedsInvestigation, decision.Kind)
	assert.Contains(t, decision.Error, "api unavailable")
	assert.Equal(t, StyleWarning, decision.ActionButtonStyle)
}

func TestDecider_FallbackOnMalformedJSON(t *testing.T) {
	provider := &fakeLLM{response: "I think this issue should be closed."}
	d := NewDecider(provider, nil, nil, deciderConfig())

	decision := d.Decide(context.Background(), &models.Issue{Title: "t"}, &models.EvidenceBundle{}, SearchContext{})
	assert.Equal(t, DecisionNeedsInvestigation, decision.Kind)
	assert.NotEmpty(t, decision.Error)
}

func TestDecider_FallbackOnUnknownDecision(t *testing.T) {
	provider := &fakeLLM{response: `{"decision": "SHIP_IT"}`}
	d := NewDecider(provider, nil, nil, deciderConfig())

	decision := d.Decide(context.Background(), &models.Issue{Title: "t"}, &models.EvidenceBundle{}, SearchContext{})
	assert.Equal(t, DecisionNeedsInvestigation, decision.Kind)
	assert.Contains(t, decision.Error, "SHIP_IT")
}

func TestDecider_FallbackNotCached(t *testing.T) {
	provider := &fakeLLM{err: errors.New("down")}
	cache := store.NewMemoryStore()
	d := NewDecider(provider, cache, nil, deciderConfig())

	issue := &models.Issue{Title: "t"}
	d.Decide(context.Background(), issue, &models.EvidenceBundle{}, SearchContext{})

	// Provider recovers; the next call must reach it
	provider.err = nil
	provider.response = validResponse
	decision := d.Decide(context.Background(), issue, &models.EvidenceBundle{}, SearchContext{})
	assert.Equal(t, DecisionValidFeature, decision.Kind)
	assert.Equal(t, 2, provider.calls)
}

func TestDecider_ImagesAttached(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	d := NewDecider(provider, nil, nil, deciderConfig())

	issue := &models.Issue{
		Title: "Crash",
		Body:  "![shot](https://e.com/a.png) ![shot2](https://e.com/b.png)",
	}
	decision := d.Decide(context.Background(), issue, &models.EvidenceBundle{}, SearchContext{})

	assert.Equal(t, 2, decision.ImagesAnalyzed)
	assert.Equal(t, []string{"https://e.com/a.png", "https://e.com/b.png"}, provider.lastReq.ImageURLs)
	assert.Equal(t, systemPrompt, provider.lastReq.System)
}

func TestDecider_ReferenceExcerptsInPrompt(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	d := NewDecider(provider, nil, fakeRefs{}, deciderConfig())

	issue := &models.Issue{
		Title: "Follow-up",
		Body:  "Same as https://github.com/acme/widget/issues/5",
	}
	d.Decide(context.Background(), issue, &models.EvidenceBundle{}, SearchContext{})

	assert.Contains(t, provider.lastReq.Prompt, "Referenced issue")
	assert.Contains(t, provider.lastReq.Prompt, "excerpt body")
}

func TestDecider_BodyTruncation(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	d := NewDecider(provider, nil, nil, deciderConfig())

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	issue := &models.Issue{Title: "long", Body: string(long)}
	d.Decide(context.Background(), issue, &models.EvidenceBundle{}, SearchContext{})

	assert.Contains(t, provider.lastReq.Prompt, truncationMarker)
	assert.Less(t, len(provider.lastReq.Prompt), 4000)
}

func TestDecider_BodyTruncationKeepsValidUTF8(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	cfg := deciderConfig()
	d := NewDecider(provider, nil, nil, cfg)

	// Position a two-byte rune so the byte limit lands mid-rune
	body := strings.Repeat("x", cfg.BodyPromptLimit-1) + strings.Repeat("é", 50)
	issue := &models.Issue{Title: "unicode", Body: body}
	d.Decide(context.Background(), issue, &models.EvidenceBundle{}, SearchContext{})

	assert.Contains(t, provider.lastReq.Prompt, truncationMarker)
	assert.True(t, utf8.ValidString(provider.lastReq.Prompt),
		"truncation must not split a multi-byte rune")
}

func TestComputeCost_CacheReadDiscount(t *testing.T) {
	pricing := deciderConfig().Pricing

	cachedUsage := llm.Usage{InputTokens: 10000, CacheReadTokens: 10000}
	regularUsage := llm.Usage{InputTokens: 10000}

	cached := computeCost(cachedUsage, pricing)
	regular := computeCost(regularUsage, pricing)

	assert.GreaterOrEqual(t, cached.TotalCostUSD, 0.0)
	assert.Less(t, cached.TotalCostUSD, regular.TotalCostUSD,
		"cache reads must be cheaper than regular input for the same token count")
}

func TestComputeCost_Breakdown(t *testing.T) {
	pricing := deciderConfig().Pricing
	usage := llm.Usage{
		InputTokens:      2000,
		OutputTokens:     500,
		CacheReadTokens:  800,
		CacheWriteTokens: 200,
	}

	cost := computeCost(usage, pricing)

	perTok := 3.0 / 1_000_000
	wantInput := 1000*perTok + 200*perTok*1.25 + 800*perTok*0.1
	wantOutput := 500 * 15.0 / 1_000_000

	assert.InDelta(t, wantInput, cost.InputCostUSD, 1e-12)
	assert.InDelta(t, wantOutput, cost.OutputCostUSD, 1e-12)
	assert.InDelta(t, wantInput+wantOutput, cost.TotalCostUSD, 1e-12)
}
