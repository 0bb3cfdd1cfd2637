package triage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/oss-triage/gh-triage/internal/websearch"
	"github.com/oss-triage/gh-triage/pkg/models"
)

// systemPrompt is identical across calls so the provider can cache it
// and bill repeats at the discounted read rate.
const systemPrompt = `You are a GitHub issue triage assistant with vision capabilities. Your job is to make ONE CLEAR DECISION.

You may receive images (screenshots, error messages, UI mockups, etc.) along with the issue text. Analyze both the text and any images to make better decisions.

Return JSON with this structure:
{
  "decision": "CLOSE_DUPLICATE|CLOSE_FIXED|CLOSE_EXISTS|NEEDS_INVESTIGATION|VALID_FEATURE|NEEDS_INFO|ANSWER_FROM_DOCS|INVALID",
  "primary_message": "One sentence explanation",
  "evidence_bullets": ["2-3 short evidence points"],
  "draft_response": "Friendly comment to post on GitHub",
  "action_button_text": "Text for main action button",
  "action_button_style": "danger|success|primary|warning",
  "related_links": [{"text": "Link text", "url": "URL", "source": "stackoverflow|github|docs|internal"}]
}

Be decisive. Pick ONE action. Be helpful and friendly. If images show errors or bugs, reference them in your response.`

const truncationMarker = "\n\n[... issue body truncated ...]"

// promptContext bundles everything the user message is built from
type promptContext struct {
	bundle        *models.EvidenceBundle
	stackOverflow websearch.Results
	gitHub        websearch.Results
	refExcerpts   []*github.RefExcerpt
	externalLinks []string
	imageCount    int
}

// buildPrompt renders the variable user message: the issue, an
// enumerated evidence summary, fetched reference excerpts and external
// search context.
func buildPrompt(issue *models.Issue, pctx *promptContext, bodyLimit int) string {
	body := issue.Body
	if len(body) > bodyLimit {
		// Back off to a rune boundary so the cut never leaves a
		// partial multi-byte character in the prompt
		cut := bodyLimit
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + truncationMarker
	}
	if body == "" {
		body = "No description provided"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Issue #%d: %q\n\n%s\n", issue.Number, issue.Title, body)

	if pctx.imageCount > 0 {
		fmt.Fprintf(&b, "\nNote: %d image(s) attached - analyze them for error messages, UI issues, or bugs.\n", pctx.imageCount)
	}

	b.WriteString("\nEvidence:\n")
	writeIssueEvidence(&b, "Similar issues", pctx.bundle.Issues)
	writeIssueEvidence(&b, "Related PRs", pctx.bundle.PRs)
	writeChunkEvidence(&b, "Code matches", pctx.bundle.Code)
	writeChunkEvidence(&b, "Doc matches", pctx.bundle.Docs)

	writeSearchResults(&b, "Stack Overflow", pctx.stackOverflow)
	writeSearchResults(&b, "GitHub (other repos)", pctx.gitHub)

	if len(pctx.refExcerpts) > 0 {
		b.WriteString("\n## Referenced Links\n")
		for _, ref := range pctx.refExcerpts {
			fmt.Fprintf(&b, "\nReferenced: %s\n%s\n", ref.Title, ref.Excerpt)
		}
	}

	if len(pctx.externalLinks) > 0 {
		b.WriteString("\nUser also referenced external links:\n")
		for _, url := range pctx.externalLinks {
			fmt.Fprintf(&b, "- %s\n", url)
		}
	}

	b.WriteString("\nWhen generating related_links, use the URLs provided above. Decide what to do.\n")
	return b.String()
}

func writeIssueEvidence(b *strings.Builder, label string, items []models.EvidenceItem) {
	fmt.Fprintf(b, "- %s: %d found", label, len(items))
	for i, item := range top3(items) {
		fmt.Fprintf(b, "\n  %d. #%d: %s (%d%% match, %s)", i+1, item.Number, item.Title, int(item.Similarity*100), item.State)
	}
	b.WriteString("\n")
}

func writeChunkEvidence(b *strings.Builder, label string, items []models.EvidenceItem) {
	fmt.Fprintf(b, "- %s: %d found", label, len(items))
	for i, item := range top3(items) {
		fmt.Fprintf(b, "\n  %d. %s:%d-%d (%d%% match)", i+1, item.Filename, item.StartLine, item.EndLine, int(item.Similarity*100))
	}
	b.WriteString("\n")
}

func writeSearchResults(b *strings.Builder, label string, results websearch.Results) {
	if results.Failed {
		fmt.Fprintf(b, "- %s: search unavailable\n", label)
		return
	}
	fmt.Fprintf(b, "- %s: %d results", label, len(results.Items))
	for i, r := range results.Items {
		if i == 3 {
			break
		}
		fmt.Fprintf(b, "\n  %d. %s - %s", i+1, r.Title, r.URL)
	}
	b.WriteString("\n")
}

func top3(items []models.EvidenceItem) []models.EvidenceItem {
	if len(items) > 3 {
		return items[:3]
	}
	return items
}
