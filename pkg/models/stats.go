package models

// IndexStats summarizes a bulk indexing run
type IndexStats struct {
	TotalIssues int `json:"total_issues"`
	Issues      int `json:"issues"`
	PRs         int `json:"prs"`
	Skipped     int `json:"skipped"`
	Errors      int `json:"errors"`
	DurationMs  int `json:"duration_ms"`
}
