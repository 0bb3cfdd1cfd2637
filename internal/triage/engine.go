package triage

import (
	"context"
	"log"
	"time"

	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/oss-triage/gh-triage/internal/store"
	"github.com/oss-triage/gh-triage/internal/websearch"
	"github.com/oss-triage/gh-triage/pkg/models"
)

// ErrIssueNotFound marks the one hard failure: a missing anchor issue.
// Every other problem degrades to a best-effort decision.
var ErrIssueNotFound = github.ErrIssueNotFound

// IssueSource fetches the issue being triaged
type IssueSource interface {
	GetIssue(ctx context.Context, org, repo string, number int) (*models.Issue, error)
}

// EvidenceSource gathers similarity evidence for an issue
type EvidenceSource interface {
	Bundle(ctx context.Context, issue *models.Issue) (*models.EvidenceBundle, error)
}

// Searcher supplies optional external search context
type Searcher interface {
	SearchStackOverflow(ctx context.Context, issue *models.Issue) websearch.Results
	SearchGitHub(ctx context.Context, issue *models.Issue) websearch.Results
}

// Engine runs the tiered triage pipeline: rules first, then the cached
// and paid model tiers, with cost accounting on every path.
type Engine struct {
	issues   IssueSource
	evidence EvidenceSource
	searcher Searcher        // nil disables external search
	rules    *RuleEngine
	decider  *Decider
	costs    store.CostStore // nil disables cost tracking
}

// NewEngine wires the pipeline; searcher and costs may be nil
func NewEngine(issues IssueSource, evidence EvidenceSource, searcher Searcher, rules *RuleEngine, decider *Decider, costs store.CostStore) *Engine {
	return &Engine{
		issues:   issues,
		evidence: evidence,
		searcher: searcher,
		rules:    rules,
		decider:  decider,
		costs:    costs,
	}
}

// Triage fetches and triages one issue. A missing issue is the only
// error; anything else comes back as a decision.
func (e *Engine) Triage(ctx context.Context, org, repo string, number int) (*NormalizedDecision, error) {
	issue, err := e.issues.GetIssue(ctx, org, repo, number)
	if err != nil {
		return nil, err
	}
	return e.TriageIssue(ctx, issue)
}

// TriageIssue triages an already-fetched issue
func (e *Engine) TriageIssue(ctx context.Context, issue *models.Issue) (*NormalizedDecision, error) {
	bundle, err := e.evidence.Bundle(ctx, issue)
	if err != nil {
		log.Printf("Warning: evidence retrieval failed for %s#%d: %v", issue.FullRepo(), issue.Number, err)
		bundle = &models.EvidenceBundle{}
	}

	repoURL := "https://github.com/" + issue.FullRepo()

	// Tier 1: free rule decisions
	if d := e.rules.Apply(issue, bundle, repoURL); d != nil {
		e.recordCost(ctx, store.CostDelta{CostSavedUSD: d.CostSaved})
		return Normalize(d), nil
	}

	// External context is a best-effort signal for the model tier
	var search SearchContext
	if e.searcher != nil {
		search.StackOverflow = e.searcher.SearchStackOverflow(ctx, issue)
		search.GitHub = e.searcher.SearchGitHub(ctx, issue)
	}

	// Tiers 2 and 3
	d := e.decider.Decide(ctx, issue, bundle, search)

	delta := store.CostDelta{}
	if d.FromCache {
		delta.CacheHits = 1
		delta.CostSavedUSD = d.CostSaved
	} else {
		delta.CacheMisses = 1
		if d.Cost != nil {
			delta.APICalls = 1
			delta.CostUSD = d.Cost.TotalCostUSD
			delta.CachedTokens = d.Cost.CacheReadTokens
		}
	}
	e.recordCost(ctx, delta)

	return Normalize(d), nil
}

func (e *Engine) recordCost(ctx context.Context, delta store.CostDelta) {
	if e.costs == nil {
		return
	}
	if err := e.costs.AddCost(ctx, time.Now(), delta); err != nil {
		log.Printf("Warning: cost tracking failed: %v", err)
	}
}
