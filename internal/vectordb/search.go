package vectordb

import (
	"context"
	"fmt"
	"sort"

	"github.com/oss-triage/gh-triage/pkg/models"
	"github.com/qdrant/go-client/qdrant"
)

// Search finds the nearest evidence items in a collection. The kind is
// stamped onto each item so callers can merge results across corpora.
func (c *Client) Search(ctx context.Context, collection string, kind models.EvidenceKind, vector []float32, limit int, threshold float64) ([]models.EvidenceItem, error) {
	scoreThreshold := float32(threshold)

	points, err := c.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: &scoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]models.EvidenceItem, 0, len(points))
	for _, point := range points {
		item := payloadToEvidence(kind, point.Payload)
		item.Similarity = float64(point.Score)
		results = append(results, item)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	return results, nil
}

// SearchExcluding searches a collection while excluding one issue at
// query time. Filtering in the query keeps the anchor from displacing a
// real match within the result limit.
func (c *Client) SearchExcluding(ctx context.Context, collection string, kind models.EvidenceKind, vector []float32, limit int, threshold float64, excludeNumber int) ([]models.EvidenceItem, error) {
	return c.SearchFiltered(ctx, collection, kind, vector, limit, threshold, excludeNumberFilter(excludeNumber))
}

// excludeNumberFilter matches everything but the given issue number.
// Collections are scoped to one org/repo, so the number alone
// identifies the anchor.
func excludeNumberFilter(number int) *qdrant.Filter {
	return &qdrant.Filter{
		MustNot: []*qdrant.Condition{
			qdrant.NewMatchInt("number", int64(number)),
		},
	}
}

// SearchFiltered searches with additional payload filters
func (c *Client) SearchFiltered(ctx context.Context, collection string, kind models.EvidenceKind, vector []float32, limit int, threshold float64, filter *qdrant.Filter) ([]models.EvidenceItem, error) {
	scoreThreshold := float32(threshold)

	points, err := c.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: &scoreThreshold,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         filter,
	})
	if err != nil {
		return nil, fmt.Errorf("filtered search failed: %w", err)
	}

	results := make([]models.EvidenceItem, 0, len(points))
	for _, point := range points {
		item := payloadToEvidence(kind, point.Payload)
		item.Similarity = float64(point.Score)
		results = append(results, item)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	return results, nil
}

// payloadToEvidence converts a Qdrant payload to an EvidenceItem
func payloadToEvidence(kind models.EvidenceKind, payload map[string]*qdrant.Value) models.EvidenceItem {
	item := models.EvidenceItem{Kind: kind}

	if v := payload["number"]; v != nil {
		item.Number = int(v.GetIntegerValue())
	}
	if v := payload["title"]; v != nil {
		item.Title = v.GetStringValue()
	}
	if v := payload["state"]; v != nil {
		item.State = v.GetStringValue()
	}
	if v := payload["filename"]; v != nil {
		item.Filename = v.GetStringValue()
	}
	if v := payload["start_line"]; v != nil {
		item.StartLine = int(v.GetIntegerValue())
	}
	if v := payload["end_line"]; v != nil {
		item.EndLine = int(v.GetIntegerValue())
	}
	if v := payload["language"]; v != nil {
		item.Language = v.GetStringValue()
	}
	if v := payload["url"]; v != nil {
		item.URL = v.GetStringValue()
	}

	return item
}
