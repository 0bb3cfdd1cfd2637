package vectordb

import (
	"context"
	"fmt"
	"time"

	"github.com/oss-triage/gh-triage/pkg/models"
	"github.com/qdrant/go-client/qdrant"
)

// Chunk is an indexable slice of a source or documentation file
type Chunk struct {
	Org       string
	Repo      string
	Filename  string
	StartLine int
	EndLine   int
	Language  string
	URL       string
	Content   string
}

// UpsertIssue inserts or updates a single issue/PR vector
func (c *Client) UpsertIssue(ctx context.Context, collection string, issue *models.Issue, vector []float32) error {
	point := issueToPoint(issue, vector)

	_, err := c.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// UpsertIssueBatch inserts or updates multiple issue/PR vectors
func (c *Client) UpsertIssueBatch(ctx context.Context, collection string, issues []*models.Issue, vectors [][]float32) error {
	if len(issues) != len(vectors) {
		return fmt.Errorf("issues and vectors length mismatch")
	}

	points := make([]*qdrant.PointStruct, len(issues))
	for i, issue := range issues {
		points[i] = issueToPoint(issue, vectors[i])
	}

	_, err := c.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("batch upsert failed: %w", err)
	}
	return nil
}

// UpsertChunkBatch inserts or updates code/doc chunk vectors
func (c *Client) UpsertChunkBatch(ctx context.Context, collection string, chunks []*Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch")
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, ch := range chunks {
		points[i] = chunkToPoint(ch, vectors[i])
	}

	_, err := c.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("batch upsert failed: %w", err)
	}
	return nil
}

// Delete removes a point by ID
func (c *Client) Delete(ctx context.Context, collection string, id string) error {
	_, err := c.qdrant.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: []*qdrant.PointId{qdrant.NewIDUUID(id)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// issueToPoint converts an Issue to a Qdrant point
func issueToPoint(issue *models.Issue, vector []float32) *qdrant.PointStruct {
	labelValues := make([]*qdrant.Value, len(issue.Labels))
	for i, label := range issue.Labels {
		labelValues[i] = qdrant.NewValueString(label)
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(issue.UUID()),
		Vectors: qdrant.NewVectors(vector...),
		Payload: map[string]*qdrant.Value{
			"org":        qdrant.NewValueString(issue.Org),
			"repo":       qdrant.NewValueString(issue.Repo),
			"number":     qdrant.NewValueInt(int64(issue.Number)),
			"title":      qdrant.NewValueString(issue.Title),
			"state":      qdrant.NewValueString(issue.State),
			"author":     qdrant.NewValueString(issue.Author),
			"url":        qdrant.NewValueString(issue.URL),
			"body_hash":  qdrant.NewValueString(issue.BodyHash()),
			"created_at": qdrant.NewValueString(issue.CreatedAt.Format(time.RFC3339)),
			"updated_at": qdrant.NewValueString(issue.UpdatedAt.Format(time.RFC3339)),
			"labels": &qdrant.Value{
				Kind: &qdrant.Value_ListValue{
					ListValue: &qdrant.ListValue{Values: labelValues},
				},
			},
		},
	}
}

// chunkToPoint converts a code/doc chunk to a Qdrant point
func chunkToPoint(ch *Chunk, vector []float32) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(models.ChunkUUID(ch.Org, ch.Repo, ch.Filename, ch.StartLine)),
		Vectors: qdrant.NewVectors(vector...),
		Payload: map[string]*qdrant.Value{
			"org":        qdrant.NewValueString(ch.Org),
			"repo":       qdrant.NewValueString(ch.Repo),
			"filename":   qdrant.NewValueString(ch.Filename),
			"start_line": qdrant.NewValueInt(int64(ch.StartLine)),
			"end_line":   qdrant.NewValueInt(int64(ch.EndLine)),
			"language":   qdrant.NewValueString(ch.Language),
			"url":        qdrant.NewValueString(ch.URL),
		},
	}
}
