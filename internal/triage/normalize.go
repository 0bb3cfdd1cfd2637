package triage

import (
	"strconv"
	"strings"
)

// categoryByKind maps the current decision taxonomy onto the legacy
// category vocabulary older consumers still read.
var categoryByKind = map[DecisionKind]string{
	DecisionCloseDuplicate:     CategoryBug,
	DecisionCloseFixed:         CategoryBug,
	DecisionNeedsInvestigation: CategoryBug,
	DecisionCloseExists:        CategoryFeatureRequest,
	DecisionValidFeature:       CategoryFeatureRequest,
	DecisionNeedsInfo:          CategoryQuestion,
	DecisionAnswerFromDocs:     CategoryQuestion,
	DecisionInvalid:            CategoryLowPriority,
}

// defaultConfidenceByKind supplies a confidence when the decision
// carries none. Duplicate detection is the most certain signal.
var defaultConfidenceByKind = map[DecisionKind]float64{
	DecisionCloseDuplicate:     0.95,
	DecisionCloseFixed:         0.85,
	DecisionCloseExists:        0.85,
	DecisionAnswerFromDocs:     0.80,
	DecisionValidFeature:       0.75,
	DecisionNeedsInfo:          0.70,
	DecisionInvalid:            0.70,
	DecisionNeedsInvestigation: 0.65,
}

// priorityByKind ranks decisions for the triage queue: unresolved work
// scores high, closeable noise scores low.
var priorityByKind = map[DecisionKind]int{
	DecisionNeedsInvestigation: 70,
	DecisionValidFeature:       50,
	DecisionNeedsInfo:          40,
	DecisionAnswerFromDocs:     35,
	DecisionCloseFixed:         30,
	DecisionCloseExists:        25,
	DecisionCloseDuplicate:     20,
	DecisionInvalid:            10,
}

// Normalize adapts a Decision to the legacy flat schema. It is total:
// every decision, including unknown kinds from older cache entries,
// produces a fully populated NormalizedDecision.
func Normalize(d *Decision) *NormalizedDecision {
	kind := d.Kind
	if !kind.Valid() {
		kind = DecisionNeedsInvestigation
	}

	n := &NormalizedDecision{
		Decision:        *d,
		PrimaryCategory: categoryByKind[kind],
		Reasoning:       d.PrimaryMessage,
		RelatedPRs:      []int{},
		DocLinks:        []DocLink{},
		Tags:            []string{},
		PriorityScore:   priorityByKind[kind],
		NeedsResponse:   kind == DecisionNeedsInfo || kind == DecisionAnswerFromDocs,
	}

	if n.Confidence == 0 {
		n.Confidence = defaultConfidenceByKind[kind]
	}

	if kind == DecisionCloseDuplicate {
		n.DuplicateOf = parseDuplicateOf(d)
	}

	n.SuggestedResponses = []SuggestedResponse{suggestedResponse(kind, n)}
	return n
}

// parseDuplicateOf recovers the original issue number from the
// decision's related links.
func parseDuplicateOf(d *Decision) int {
	for _, link := range d.RelatedLinks {
		idx := strings.LastIndex(link.URL, "/issues/")
		if idx == -1 {
			continue
		}
		if number, err := strconv.Atoi(link.URL[idx+len("/issues/"):]); err == nil {
			return number
		}
	}
	return 0
}

// suggestedResponse wraps the draft response in the legacy
// type/title/actions shape.
func suggestedResponse(kind DecisionKind, n *NormalizedDecision) SuggestedResponse {
	if kind == DecisionCloseDuplicate {
		title := "Close as duplicate"
		if n.DuplicateOf > 0 {
			title = "Close as duplicate of #" + strconv.Itoa(n.DuplicateOf)
		}
		return SuggestedResponse{
			Type:    "close_duplicate",
			Title:   title,
			Body:    n.DraftResponse,
			Actions: []string{"comment", "close", "add_label:duplicate"},
		}
	}

	switch n.PrimaryCategory {
	case CategoryFeatureRequest:
		return SuggestedResponse{
			Type:    "acknowledge_feature",
			Title:   "Acknowledge feature request",
			Body:    n.DraftResponse,
			Actions: []string{"comment", "add_label:enhancement"},
		}
	case CategoryQuestion:
		return SuggestedResponse{
			Type:    "answer_question",
			Title:   "Answer question",
			Body:    n.DraftResponse,
			Actions: []string{"comment", "add_label:question"},
		}
	case CategoryLowPriority:
		return SuggestedResponse{
			Type:    "close_low_priority",
			Title:   "Close as low priority",
			Body:    n.DraftResponse,
			Actions: []string{"comment", "close", "add_label:wontfix"},
		}
	default:
		return SuggestedResponse{
			Type:    "acknowledge_bug",
			Title:   "Acknowledge bug",
			Body:    n.DraftResponse,
			Actions: []string{"comment", "add_label:bug", "add_label:confirmed"},
		}
	}
}
