package models

import "fmt"

// EvidenceKind identifies which corpus an evidence item came from
type EvidenceKind string

const (
	EvidenceIssue EvidenceKind = "issue"
	EvidencePR    EvidenceKind = "pr"
	EvidenceCode  EvidenceKind = "code"
	EvidenceDoc   EvidenceKind = "doc"
)

// EvidenceItem is a single similarity-search hit used to ground a triage decision
type EvidenceItem struct {
	Kind       EvidenceKind `json:"kind"`
	Number     int          `json:"number,omitempty"`   // issue/pr
	Title      string       `json:"title,omitempty"`    // issue/pr
	Filename   string       `json:"filename,omitempty"` // code/doc
	Similarity float64      `json:"similarity"`
	State      string       `json:"state,omitempty"`      // issue/pr
	StartLine  int          `json:"start_line,omitempty"` // code/doc
	EndLine    int          `json:"end_line,omitempty"`   // code/doc
	Language   string       `json:"language,omitempty"`   // code/doc
	URL        string       `json:"url,omitempty"`
}

// Identifier returns a stable identity for the item, used in cache keys
// and prompt summaries.
func (e *EvidenceItem) Identifier() string {
	switch e.Kind {
	case EvidenceIssue:
		return fmt.Sprintf("issue#%d", e.Number)
	case EvidencePR:
		return fmt.Sprintf("pr#%d", e.Number)
	default:
		return fmt.Sprintf("%s:%s:%d", e.Kind, e.Filename, e.StartLine)
	}
}

// EvidenceBundle groups the evidence gathered for one issue, one slice per
// corpus, each ordered by descending similarity.
type EvidenceBundle struct {
	Issues []EvidenceItem `json:"issues"`
	PRs    []EvidenceItem `json:"prs"`
	Code   []EvidenceItem `json:"code"`
	Docs   []EvidenceItem `json:"docs"`
}

// TopIdentifiers returns up to n identifiers across all corpora, highest
// similarity first. The result feeds the response-cache key, so a change
// in the leading evidence invalidates cached decisions.
func (b *EvidenceBundle) TopIdentifiers(n int) []string {
	all := make([]EvidenceItem, 0, len(b.Issues)+len(b.PRs)+len(b.Code)+len(b.Docs))
	all = append(all, b.Issues...)
	all = append(all, b.PRs...)
	all = append(all, b.Code...)
	all = append(all, b.Docs...)

	// Insertion sort by similarity; bundles are small (tens of items)
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].Similarity > all[j-1].Similarity; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	if len(all) > n {
		all = all[:n]
	}
	ids := make([]string, len(all))
	for i := range all {
		ids[i] = all[i].Identifier()
	}
	return ids
}
