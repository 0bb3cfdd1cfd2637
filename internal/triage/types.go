package triage

// DecisionKind is the closed set of triage outcomes
type DecisionKind string

const (
	DecisionCloseDuplicate     DecisionKind = "CLOSE_DUPLICATE"
	DecisionCloseFixed         DecisionKind = "CLOSE_FIXED"
	DecisionCloseExists        DecisionKind = "CLOSE_EXISTS"
	DecisionNeedsInvestigation DecisionKind = "NEEDS_INVESTIGATION"
	DecisionValidFeature       DecisionKind = "VALID_FEATURE"
	DecisionNeedsInfo          DecisionKind = "NEEDS_INFO"
	DecisionAnswerFromDocs     DecisionKind = "ANSWER_FROM_DOCS"
	DecisionInvalid            DecisionKind = "INVALID"
)

// Valid reports whether k is one of the eight known kinds
func (k DecisionKind) Valid() bool {
	switch k {
	case DecisionCloseDuplicate, DecisionCloseFixed, DecisionCloseExists,
		DecisionNeedsInvestigation, DecisionValidFeature, DecisionNeedsInfo,
		DecisionAnswerFromDocs, DecisionInvalid:
		return true
	}
	return false
}

// Action button styles reflect the destructiveness of the suggested action
const (
	StyleDanger  = "danger"
	StyleSuccess = "success"
	StylePrimary = "primary"
	StyleWarning = "warning"
)

// RelatedLink points the maintainer at supporting material
type RelatedLink struct {
	Text   string `json:"text"`
	URL    string `json:"url"`
	Source string `json:"source"` // "github", "stackoverflow", "docs", "internal"
}

// CostBreakdown accounts for one paid model call. Cached prompt reads
// are billed at a fraction of the input rate, cache writes at a premium.
type CostBreakdown struct {
	InputTokens      int64   `json:"input_tokens"`
	OutputTokens     int64   `json:"output_tokens"`
	CacheReadTokens  int64   `json:"cache_read_tokens"`
	CacheWriteTokens int64   `json:"cache_write_tokens"`
	InputCostUSD     float64 `json:"input_cost_usd"`
	OutputCostUSD    float64 `json:"output_cost_usd"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
}

// Decision is the structured triage outcome for one issue. Exactly one
// Kind per call. RuleMatched is set only for rule-engine decisions,
// which report CostSaved instead of Cost.
type Decision struct {
	Kind              DecisionKind   `json:"decision"`
	PrimaryMessage    string         `json:"primary_message"`
	EvidenceBullets   []string       `json:"evidence_bullets"`
	DraftResponse     string         `json:"draft_response"`
	ActionButtonText  string         `json:"action_button_text"`
	ActionButtonStyle string         `json:"action_button_style"`
	RelatedLinks      []RelatedLink  `json:"related_links,omitempty"`
	Confidence        float64        `json:"confidence,omitempty"`
	RuleMatched       string         `json:"rule_matched,omitempty"`
	FromCache         bool           `json:"from_cache,omitempty"`
	ImagesAnalyzed    int            `json:"images_analyzed,omitempty"`
	Cost              *CostBreakdown `json:"cost,omitempty"`
	CostSaved         float64        `json:"cost_saved,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// SuggestedResponse is an actionable reply template for the maintainer
type SuggestedResponse struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Actions []string `json:"actions"`
}

// DocLink references a documentation file relevant to the issue
type DocLink struct {
	File       string  `json:"file"`
	Line       int     `json:"line,omitempty"`
	Similarity float64 `json:"similarity"`
}

// Legacy category values produced by the normalizer
const (
	CategoryBug            = "bug"
	CategoryFeatureRequest = "feature_request"
	CategoryQuestion       = "question"
	CategoryLowPriority    = "low_priority"
)

// NormalizedDecision carries the current Decision plus the legacy flat
// fields older consumers expect. Every field is populated; zero values
// stand in where the decision has nothing to say.
type NormalizedDecision struct {
	Decision

	PrimaryCategory    string              `json:"primary_category"`
	Reasoning          string              `json:"reasoning"`
	DuplicateOf        int                 `json:"duplicate_of,omitempty"`
	RelatedPRs         []int               `json:"related_prs"`
	DocLinks           []DocLink           `json:"doc_links"`
	Tags               []string            `json:"tags"`
	PriorityScore      int                 `json:"priority_score"`
	NeedsResponse      bool                `json:"needs_response"`
	SuggestedResponses []SuggestedResponse `json:"suggested_responses"`
}
