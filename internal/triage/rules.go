package triage

import (
	"fmt"
	"strings"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/oss-triage/gh-triage/pkg/models"
)

// Rule names reported in Decision.RuleMatched
const (
	RuleExactDuplicate = "exact_duplicate"
	RuleFoundInDocs    = "found_in_docs"
	RuleExistsInCode   = "exists_in_code"
)

// RuleEngine is the free decision tier. Apply is pure: it inspects the
// issue and its evidence and either produces a terminal decision or
// declines, leaving the issue to the cache and model tiers.
type RuleEngine struct {
	cfg config.TriageConfig
}

// NewRuleEngine creates a rule engine with the given thresholds
func NewRuleEngine(cfg config.TriageConfig) *RuleEngine {
	return &RuleEngine{cfg: cfg}
}

// Apply evaluates the rules in priority order; first match wins.
// Thresholds are strict: a similarity exactly at the threshold does not
// trigger an auto-close.
func (e *RuleEngine) Apply(issue *models.Issue, bundle *models.EvidenceBundle, repoURL string) *Decision {
	if d := e.duplicateRule(issue, bundle, repoURL); d != nil {
		return d
	}
	if d := e.docsRule(issue, bundle, repoURL); d != nil {
		return d
	}
	if d := e.existsRule(issue, bundle, repoURL); d != nil {
		return d
	}
	return nil
}

func (e *RuleEngine) duplicateRule(issue *models.Issue, bundle *models.EvidenceBundle, repoURL string) *Decision {
	if len(bundle.Issues) == 0 {
		return nil
	}
	dup := bundle.Issues[0]
	if dup.Similarity <= e.cfg.DuplicateThreshold {
		return nil
	}

	url := fmt.Sprintf("#/issues/%d", dup.Number)
	if repoURL != "" {
		url = fmt.Sprintf("%s/issues/%d", repoURL, dup.Number)
	}

	return &Decision{
		Kind:           DecisionCloseDuplicate,
		PrimaryMessage: fmt.Sprintf("This is the same as issue #%d", dup.Number),
		EvidenceBullets: []string{
			fmt.Sprintf("%d%% similarity match", int(dup.Similarity*100)),
			fmt.Sprintf("Original: %s", dup.Title),
			fmt.Sprintf("Status: %s", dup.State),
		},
		DraftResponse:     duplicateResponse(issue, &dup),
		ActionButtonText:  fmt.Sprintf("Post & Close as Duplicate of #%d", dup.Number),
		ActionButtonStyle: StyleDanger,
		RelatedLinks: []RelatedLink{{
			Text:   fmt.Sprintf("Original Issue #%d", dup.Number),
			URL:    url,
			Source: "github",
		}},
		Confidence:  dup.Similarity,
		RuleMatched: RuleExactDuplicate,
		CostSaved:   e.cfg.RuleCostSaved,
	}
}

func (e *RuleEngine) docsRule(issue *models.Issue, bundle *models.EvidenceBundle, repoURL string) *Decision {
	if len(bundle.Docs) == 0 {
		return nil
	}
	doc := bundle.Docs[0]
	if doc.Similarity <= e.cfg.DocsThreshold {
		return nil
	}

	url := "#/docs/" + doc.Filename
	source := "docs"
	if repoURL != "" {
		url = fmt.Sprintf("%s/blob/main/%s", repoURL, doc.Filename)
		if doc.StartLine > 0 {
			url += fmt.Sprintf("#L%d", doc.StartLine)
		}
		source = "github"
	}

	return &Decision{
		Kind:           DecisionAnswerFromDocs,
		PrimaryMessage: "This is already explained in the documentation",
		EvidenceBullets: []string{
			fmt.Sprintf("Found in %s", doc.Filename),
			fmt.Sprintf("%d%% relevance", int(doc.Similarity*100)),
			"Documentation is up to date",
		},
		DraftResponse:     docsResponse(issue, &doc),
		ActionButtonText:  "Post Answer & Close",
		ActionButtonStyle: StyleSuccess,
		RelatedLinks: []RelatedLink{{
			Text:   "Documentation: " + doc.Filename,
			URL:    url,
			Source: source,
		}},
		Confidence:  doc.Similarity,
		RuleMatched: RuleFoundInDocs,
		CostSaved:   e.cfg.RuleCostSaved,
	}
}

func (e *RuleEngine) existsRule(issue *models.Issue, bundle *models.EvidenceBundle, repoURL string) *Decision {
	if len(bundle.Code) == 0 {
		return nil
	}
	code := bundle.Code[0]
	if code.Similarity <= e.cfg.CodeThreshold {
		return nil
	}
	// Only close feature requests; bug reports matching code need a look
	if !e.isFeatureRequest(issue) {
		return nil
	}

	url := fmt.Sprintf("#/code/%s#L%d", code.Filename, code.StartLine)
	source := "internal"
	if repoURL != "" {
		url = fmt.Sprintf("%s/blob/main/%s#L%d", repoURL, code.Filename, code.StartLine)
		source = "github"
	}

	return &Decision{
		Kind:           DecisionCloseExists,
		PrimaryMessage: "This feature already exists in the codebase",
		EvidenceBullets: []string{
			fmt.Sprintf("Found in %s", code.Filename),
			fmt.Sprintf("Lines %d-%d", code.StartLine, code.EndLine),
			fmt.Sprintf("%d%% match", int(code.Similarity*100)),
		},
		DraftResponse:     existsResponse(issue, &code),
		ActionButtonText:  "Post Explanation & Close",
		ActionButtonStyle: StylePrimary,
		RelatedLinks: []RelatedLink{{
			Text:   fmt.Sprintf("Code: %s:%d", code.Filename, code.StartLine),
			URL:    url,
			Source: source,
		}},
		Confidence:  code.Similarity,
		RuleMatched: RuleExistsInCode,
		CostSaved:   e.cfg.RuleCostSaved,
	}
}

// isFeatureRequest is a substring check over the configured keyword
// list, not a classifier.
func (e *RuleEngine) isFeatureRequest(issue *models.Issue) bool {
	title := strings.ToLower(issue.Title)
	body := strings.ToLower(issue.Body)

	for _, keyword := range e.cfg.FeatureKeywords {
		if strings.Contains(title, keyword) || strings.Contains(body, keyword) {
			return true
		}
	}
	return false
}

func duplicateResponse(issue *models.Issue, dup *models.EvidenceItem) string {
	return fmt.Sprintf(`Hi @%s! 👋

This is a duplicate of #%d, which is currently %s.

Please follow the original issue for updates. If you have additional information that's not already covered there, feel free to comment on the original issue.

Thanks for reporting!`, author(issue), dup.Number, dup.State)
}

func docsResponse(issue *models.Issue, doc *models.EvidenceItem) string {
	return fmt.Sprintf(`Hi @%s! 👋

This is covered in our documentation: **%s**

You can find detailed information there about how to %s.

If you have questions after reading the docs, feel free to ask!`, author(issue), doc.Filename, strings.ToLower(issue.Title))
}

func existsResponse(issue *models.Issue, code *models.EvidenceItem) string {
	return fmt.Sprintf(`Hi @%s! 👋

Good news! This feature already exists in the codebase.

You can find it in: **%s** (lines %d-%d)

Check the documentation for usage instructions. Let us know if you need help using it!`, author(issue), code.Filename, code.StartLine, code.EndLine)
}

func author(issue *models.Issue) string {
	if issue.Author == "" {
		return "user"
	}
	return issue.Author
}
