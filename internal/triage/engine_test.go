package triage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oss-triage/gh-triage/internal/llm"
	"github.com/oss-triage/gh-triage/internal/store"
	"github.com/oss-triage/gh-triage/internal/websearch"
	"github.com/oss-triage/gh-triage/pkg/models"
)

type fakeIssueSource struct {
	issues map[int]*models.Issue
	panics map[int]bool
}

func (f *fakeIssueSource) GetIssue(ctx context.Context, org, repo string, number int) (*models.Issue, error) {
	if f.panics[number] {
		panic("issue source exploded")
	}
	issue, ok := f.issues[number]
	if !ok {
		return nil, ErrIssueNotFound
	}
	return issue, nil
}

type fakeEvidenceSource struct {
	bundle *models.EvidenceBundle
	err    error
	calls  int
}

func (f *fakeEvidenceSource) Bundle(ctx context.Context, issue *models.Issue) (*models.EvidenceBundle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.bundle == nil {
		return &models.EvidenceBundle{}, nil
	}
	return f.bundle, nil
}

type fakeSearchSource struct {
	calls int
}

func (f *fakeSearchSource) SearchStackOverflow(ctx context.Context, issue *models.Issue) websearch.Results {
	f.calls++
	return websearch.Results{}
}

func (f *fakeSearchSource) SearchGitHub(ctx context.Context, issue *models.Issue) websearch.Results {
	f.calls++
	return websearch.Results{}
}

type recordingCostStore struct {
	deltas []store.CostDelta
}

func (r *recordingCostStore) AddCost(ctx context.Context, day time.Time, delta store.CostDelta) error {
	r.deltas = append(r.deltas, delta)
	return nil
}

func (r *recordingCostStore) DailyCosts(ctx context.Context, since time.Time) ([]store.DailyCost, error) {
	return nil, nil
}

func testIssue(number int, title, body string) *models.Issue {
	return &models.Issue{
		Org:    "acme",
		Repo:   "widget",
		Number: number,
		Title:  title,
		Body:   body,
		Author: "alice",
	}
}

func newTestEngine(t *testing.T, provider *fakeLLM, issues IssueSource, evidence EvidenceSource) (*Engine, *recordingCostStore) {
	t.Helper()
	cfg := deciderConfig()
	costs := &recordingCostStore{}
	decider := NewDecider(provider, store.NewMemoryStore(), nil, cfg)
	engine := NewEngine(issues, evidence, nil, NewRuleEngine(cfg), decider, costs)
	return engine, costs
}

func TestEngine_RuleDecisionSkipsModel(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	evidence := &fakeEvidenceSource{bundle: &models.EvidenceBundle{
		Issues: []models.EvidenceItem{{
			Kind: models.EvidenceIssue, Number: 42, Title: "Same crash",
			Similarity: 0.98, State: "open",
		}},
	}}
	issues := &fakeIssueSource{issues: map[int]*models.Issue{
		7: testIssue(7, "App crashes on start", "it crashes"),
	}}
	engine, costs := newTestEngine(t, provider, issues, evidence)

	n, err := engine.Triage(context.Background(), "acme", "widget", 7)
	require.NoError(t, err)

	assert.Equal(t, DecisionCloseDuplicate, n.Kind)
	assert.Equal(t, RuleExactDuplicate, n.RuleMatched)
	assert.Equal(t, 0, provider.calls, "rule tier must not reach the model")

	require.Len(t, costs.deltas, 1)
	assert.InDelta(t, 0.02, costs.deltas[0].CostSavedUSD, 1e-9)
	assert.Equal(t, 0, costs.deltas[0].APICalls)
}

func TestEngine_ModelPathRecordsSpend(t *testing.T) {
	provider := &fakeLLM{
		response: validResponse,
		usage:    llm.Usage{InputTokens: 1000, OutputTokens: 200},
	}
	issues := &fakeIssueSource{issues: map[int]*models.Issue{
		8: testIssue(8, "Add CSV export", "please"),
	}}
	engine, costs := newTestEngine(t, provider, issues, &fakeEvidenceSource{})

	n, err := engine.Triage(context.Background(), "acme", "widget", 8)
	require.NoError(t, err)

	assert.Equal(t, DecisionValidFeature, n.Kind)
	require.Len(t, costs.deltas, 1)
	assert.Equal(t, 1, costs.deltas[0].APICalls)
	assert.Equal(t, 1, costs.deltas[0].CacheMisses)
	assert.Greater(t, costs.deltas[0].CostUSD, 0.0)
}

func TestEngine_SecondTriageHitsResponseCache(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	issues := &fakeIssueSource{issues: map[int]*models.Issue{
		8: testIssue(8, "Add CSV export", "please"),
	}}
	engine, costs := newTestEngine(t, provider, issues, &fakeEvidenceSource{})

	_, err := engine.Triage(context.Background(), "acme", "widget", 8)
	require.NoError(t, err)
	n, err := engine.Triage(context.Background(), "acme", "widget", 8)
	require.NoError(t, err)

	assert.True(t, n.FromCache)
	assert.Equal(t, 1, provider.calls)

	require.Len(t, costs.deltas, 2)
	assert.Equal(t, 1, costs.deltas[1].CacheHits)
	assert.InDelta(t, 0.015, costs.deltas[1].CostSavedUSD, 1e-9)
}

func TestEngine_EvidenceFailureDegrades(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	evidence := &fakeEvidenceSource{err: assert.AnError}
	issues := &fakeIssueSource{issues: map[int]*models.Issue{
		9: testIssue(9, "Add CSV export", "please"),
	}}
	engine, _ := newTestEngine(t, provider, issues, evidence)

	n, err := engine.Triage(context.Background(), "acme", "widget", 9)
	require.NoError(t, err, "evidence loss must not fail triage")
	assert.Equal(t, DecisionValidFeature, n.Kind)
	assert.Equal(t, 1, provider.calls, "pipeline falls through to the model")
}

func TestEngine_MissingIssueIsHardError(t *testing.T) {
	engine, costs := newTestEngine(t, &fakeLLM{response: validResponse},
		&fakeIssueSource{issues: map[int]*models.Issue{}}, &fakeEvidenceSource{})

	_, err := engine.Triage(context.Background(), "acme", "widget", 404)
	assert.ErrorIs(t, err, ErrIssueNotFound)
	assert.Empty(t, costs.deltas)
}

func TestEngine_SearcherConsultedOnModelPath(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	searcher := &fakeSearchSource{}
	cfg := deciderConfig()
	decider := NewDecider(provider, nil, nil, cfg)
	engine := NewEngine(
		&fakeIssueSource{issues: map[int]*models.Issue{1: testIssue(1, "t", "b")}},
		&fakeEvidenceSource{}, searcher, NewRuleEngine(cfg), decider, nil)

	_, err := engine.Triage(context.Background(), "acme", "widget", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.calls, "both search sources queried once")
}
