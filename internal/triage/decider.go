package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/oss-triage/gh-triage/internal/llm"
	"github.com/oss-triage/gh-triage/internal/store"
	"github.com/oss-triage/gh-triage/internal/websearch"
	"github.com/oss-triage/gh-triage/pkg/models"
)

// RefFetcher retrieves short excerpts of GitHub references found in
// issue bodies, so the model sees content instead of bare links.
type RefFetcher interface {
	FetchIssueExcerpt(ctx context.Context, org, repo string, number int) (*github.RefExcerpt, error)
	FetchFileExcerpt(ctx context.Context, org, repo, ref, path string) (*github.RefExcerpt, error)
}

// SearchContext carries the external search results for one triage call
type SearchContext struct {
	StackOverflow websearch.Results
	GitHub        websearch.Results
}

// Decider is the paid tier: it consults the response cache, then builds
// a bounded prompt and asks the model. Decide never fails — any error
// degrades to a NEEDS_INVESTIGATION decision carrying the error text.
type Decider struct {
	llm   llm.Provider
	cache store.CacheStore // nil disables caching
	refs  RefFetcher       // nil disables reference fetching
	cfg   config.TriageConfig
}

// NewDecider creates a decider; cache and refs may be nil
func NewDecider(provider llm.Provider, cache store.CacheStore, refs RefFetcher, cfg config.TriageConfig) *Decider {
	return &Decider{
		llm:   provider,
		cache: cache,
		refs:  refs,
		cfg:   cfg,
	}
}

// Decide produces a decision for the issue given its evidence and
// external search context.
func (d *Decider) Decide(ctx context.Context, issue *models.Issue, bundle *models.EvidenceBundle, search SearchContext) *Decision {
	key := responseCacheKey(issue, bundle)

	if cached := d.fromCache(ctx, key); cached != nil {
		cached.FromCache = true
		cached.CostSaved = d.cfg.CacheCostSaved
		cached.Cost = nil
		return cached
	}

	images := ExtractImageURLs(issue.Body, d.cfg.MaxImages)

	pctx := &promptContext{
		bundle:        bundle,
		stackOverflow: search.StackOverflow,
		gitHub:        search.GitHub,
		refExcerpts:   d.fetchRefs(ctx, issue),
		externalLinks: ExtractExternalLinks(issue.Body, d.cfg.MaxRefLinks),
		imageCount:    len(images),
	}
	prompt := buildPrompt(issue, pctx, d.cfg.BodyPromptLimit)

	completion, err := d.llm.Complete(ctx, llm.Request{
		System:    systemPrompt,
		Prompt:    prompt,
		ImageURLs: images,
	})
	if err != nil {
		return fallbackDecision(err)
	}

	decision, err := parseDecision(completion.Text)
	if err != nil {
		return fallbackDecision(err)
	}

	decision.Cost = computeCost(completion.Usage, d.cfg.Pricing)
	decision.ImagesAnalyzed = len(images)
	decision.FromCache = false

	d.toCache(ctx, key, decision)
	return decision
}

// fetchRefs resolves GitHub references in the issue body to excerpts.
// Fetch failures skip the reference, they never fail the triage.
func (d *Decider) fetchRefs(ctx context.Context, issue *models.Issue) []*github.RefExcerpt {
	refs := ExtractGitHubRefs(issue.Body, d.cfg.MaxRefLinks)
	if len(refs) == 0 || d.refs == nil {
		return nil
	}

	var excerpts []*github.RefExcerpt
	for _, ref := range refs {
		var excerpt *github.RefExcerpt
		var err error

		switch ref.Type {
		case "issues", "pull":
			number, convErr := strconv.Atoi(ref.Path)
			if convErr != nil {
				continue
			}
			excerpt, err = d.refs.FetchIssueExcerpt(ctx, ref.Owner, ref.Repo, number)
		case "blob":
			branch, path, ok := strings.Cut(ref.Path, "/")
			if !ok {
				continue
			}
			excerpt, err = d.refs.FetchFileExcerpt(ctx, ref.Owner, ref.Repo, branch, path)
		case "discussions":
			// No simple API access; pass the link through as-is
			excerpt = &github.RefExcerpt{URL: ref.URL, Title: "Discussion", Excerpt: ref.URL}
		default:
			continue
		}

		if err != nil {
			log.Printf("Warning: failed to fetch reference %s: %v", ref.URL, err)
			continue
		}
		excerpts = append(excerpts, excerpt)
	}
	return excerpts
}

func (d *Decider) fromCache(ctx context.Context, key string) *Decision {
	if d.cache == nil {
		return nil
	}
	data, err := d.cache.GetResponse(ctx, key)
	if err != nil {
		if err != store.ErrNotFound {
			log.Printf("Warning: response cache read failed: %v", err)
		}
		return nil
	}
	var decision Decision
	if err := json.Unmarshal(data, &decision); err != nil {
		return nil
	}
	return &decision
}

func (d *Decider) toCache(ctx context.Context, key string, decision *Decision) {
	if d.cache == nil {
		return
	}
	data, err := json.Marshal(decision)
	if err != nil {
		return
	}
	ttl := time.Duration(d.cfg.ResponseCacheTTLDays) * 24 * time.Hour
	if err := d.cache.SetResponse(ctx, key, data, ttl); err != nil {
		log.Printf("Warning: response cache write failed: %v", err)
	}
}

// parseDecision decodes the model's JSON answer, tolerating markdown
// code fences around it.
func parseDecision(text string) (*Decision, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	var decision Decision
	if err := json.Unmarshal([]byte(text), &decision); err != nil {
		return nil, fmt.Errorf("failed to parse decision: %w", err)
	}
	if !decision.Kind.Valid() {
		return nil, fmt.Errorf("unknown decision value: %q", decision.Kind)
	}
	return &decision, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "```"); idx != -1 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// computeCost prices the call: uncached input at the base rate, cache
// writes at a premium, cache reads at a steep discount.
func computeCost(usage llm.Usage, pricing config.PricingConfig) *CostBreakdown {
	regularInput := usage.InputTokens - usage.CacheReadTokens - usage.CacheWriteTokens
	if regularInput < 0 {
		regularInput = 0
	}

	perTok := pricing.InputPerMTok / 1_000_000
	regularCost := float64(regularInput) * perTok
	cacheWriteCost := float64(usage.CacheWriteTokens) * perTok * pricing.CacheWriteMultiplier
	cacheReadCost := float64(usage.CacheReadTokens) * perTok * pricing.CacheReadMultiplier
	outputCost := float64(usage.OutputTokens) * pricing.OutputPerMTok / 1_000_000

	return &CostBreakdown{
		InputTokens:      usage.InputTokens,
		OutputTokens:     usage.OutputTokens,
		CacheReadTokens:  usage.CacheReadTokens,
		CacheWriteTokens: usage.CacheWriteTokens,
		InputCostUSD:     regularCost + cacheWriteCost + cacheReadCost,
		OutputCostUSD:    outputCost,
		TotalCostUSD:     regularCost + cacheWriteCost + cacheReadCost + outputCost,
	}
}

// fallbackDecision is returned when the model call or parse fails.
// It is never cached; the next attempt gets a fresh call.
func fallbackDecision(err error) *Decision {
	return &Decision{
		Kind:              DecisionNeedsInvestigation,
		PrimaryMessage:    "Could not analyze automatically",
		EvidenceBullets:   []string{"AI analysis failed", "Needs manual review"},
		DraftResponse:     "Thanks for reporting! We'll review this shortly.",
		ActionButtonText:  "Mark for Review",
		ActionButtonStyle: StyleWarning,
		Error:             err.Error(),
	}
}
