package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/oss-triage/gh-triage/pkg/models"
)

func ruleConfig() config.TriageConfig {
	return config.TriageConfig{
		DuplicateThreshold: 0.95,
		DocsThreshold:      0.80,
		CodeThreshold:      0.80,
		FeatureKeywords: []string{
			"add", "support", "implement", "allow", "enable",
			"would be nice", "could we", "feature request",
			"enhancement", "suggestion",
		},
		RuleCostSaved: 0.02,
	}
}

func similarIssue(number int, title, state string, sim float64) models.EvidenceItem {
	return models.EvidenceItem{
		Kind: models.EvidenceIssue, Number: number, Title: title, State: state, Similarity: sim,
	}
}

func TestRules_ExactDuplicate(t *testing.T) {
	e := NewRuleEngine(ruleConfig())
	issue := &models.Issue{Title: "App crashes on launch", Author: "alice"}
	bundle := &models.EvidenceBundle{
		Issues: []models.EvidenceItem{similarIssue(42, "App crashes on launch", "open", 0.98)},
	}

	d := e.Apply(issue, bundle, "https://github.com/acme/widget")
	require.NotNil(t, d)

	assert.Equal(t, DecisionCloseDuplicate, d.Kind)
	assert.Equal(t, RuleExactDuplicate, d.RuleMatched)
	assert.Equal(t, StyleDanger, d.ActionButtonStyle)
	assert.InDelta(t, 0.98, d.Confidence, 1e-9)
	assert.InDelta(t, 0.02, d.CostSaved, 1e-9)
	assert.Nil(t, d.Cost)

	// Evidence references the issue number and percentage
	assert.Contains(t, d.PrimaryMessage, "#42")
	assert.Contains(t, d.EvidenceBullets[0], "98%")
	assert.Equal(t, "https://github.com/acme/widget/issues/42", d.RelatedLinks[0].URL)
	assert.Contains(t, d.DraftResponse, "@alice")
}

func TestRules_ThresholdIsStrict(t *testing.T) {
	e := NewRuleEngine(ruleConfig())
	issue := &models.Issue{Title: "App crashes on launch"}

	// Exactly at the threshold must not trigger
	at := &models.EvidenceBundle{Issues: []models.EvidenceItem{similarIssue(42, "crash", "open", 0.95)}}
	assert.Nil(t, e.Apply(issue, at, ""))

	// Just above must
	above := &models.EvidenceBundle{Issues: []models.EvidenceItem{similarIssue(42, "crash", "open", 0.951)}}
	d := e.Apply(issue, above, "")
	require.NotNil(t, d)
	assert.Equal(t, DecisionCloseDuplicate, d.Kind)
}

func TestRules_DuplicateWinsOverDocs(t *testing.T) {
	e := NewRuleEngine(ruleConfig())
	issue := &models.Issue{Title: "How do I configure retries?"}
	bundle := &models.EvidenceBundle{
		Issues: []models.EvidenceItem{similarIssue(7, "Configure retries", "closed", 0.97)},
		Docs: []models.EvidenceItem{
			{Kind: models.EvidenceDoc, Filename: "docs/retries.md", Similarity: 0.85},
		},
	}

	d := e.Apply(issue, bundle, "")
	require.NotNil(t, d)
	assert.Equal(t, DecisionCloseDuplicate, d.Kind)
}

func TestRules_AnswerFromDocs(t *testing.T) {
	e := NewRuleEngine(ruleConfig())
	issue := &models.Issue{Title: "How to configure retries", Author: "bob"}
	bundle := &models.EvidenceBundle{
		Docs: []models.EvidenceItem{
			{Kind: models.EvidenceDoc, Filename: "docs/retries.md", StartLine: 12, Similarity: 0.88},
		},
	}

	d := e.Apply(issue, bundle, "https://github.com/acme/widget")
	require.NotNil(t, d)
	assert.Equal(t, DecisionAnswerFromDocs, d.Kind)
	assert.Equal(t, RuleFoundInDocs, d.RuleMatched)
	assert.Equal(t, StyleSuccess, d.ActionButtonStyle)
	assert.Equal(t, "https://github.com/acme/widget/blob/main/docs/retries.md#L12", d.RelatedLinks[0].URL)
}

func TestRules_ExistsInCode(t *testing.T) {
	e := NewRuleEngine(ruleConfig())
	issue := &models.Issue{Title: "Please add dark mode", Body: "It would be great", Author: "carol"}
	bundle := &models.EvidenceBundle{
		Code: []models.EvidenceItem{
			{Kind: models.EvidenceCode, Filename: "theme.py", StartLine: 10, EndLine: 40, Similarity: 0.88},
		},
	}

	d := e.Apply(issue, bundle, "")
	require.NotNil(t, d)
	assert.Equal(t, DecisionCloseExists, d.Kind)
	assert.Equal(t, RuleExistsInCode, d.RuleMatched)
	assert.Equal(t, StylePrimary, d.ActionButtonStyle)
	assert.Contains(t, d.EvidenceBullets[1], "10-40")
}

func TestRules_ExistsInCodeRequiresFeatureWording(t *testing.T) {
	e := NewRuleEngine(ruleConfig())
	// A bug report that happens to match code closely must not be closed
	issue := &models.Issue{Title: "Crash when opening settings", Body: "stack trace attached"}
	bundle := &models.EvidenceBundle{
		Code: []models.EvidenceItem{
			{Kind: models.EvidenceCode, Filename: "settings.go", StartLine: 5, EndLine: 30, Similarity: 0.90},
		},
	}

	assert.Nil(t, e.Apply(issue, bundle, ""))
}

func TestRules_NoEvidenceNoMatch(t *testing.T) {
	e := NewRuleEngine(ruleConfig())
	assert.Nil(t, e.Apply(&models.Issue{Title: "something"}, &models.EvidenceBundle{}, ""))
}
