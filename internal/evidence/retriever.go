package evidence

import (
	"context"
	"fmt"
	"log"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/oss-triage/gh-triage/internal/embedding"
	"github.com/oss-triage/gh-triage/internal/vectordb"
	"github.com/oss-triage/gh-triage/pkg/models"
)

// VectorSearcher is the slice of the vector store the retriever needs
type VectorSearcher interface {
	Search(ctx context.Context, collection string, kind models.EvidenceKind, vector []float32, limit int, threshold float64) ([]models.EvidenceItem, error)
	SearchExcluding(ctx context.Context, collection string, kind models.EvidenceKind, vector []float32, limit int, threshold float64, excludeNumber int) ([]models.EvidenceItem, error)
}

// Retriever gathers similar issues, PRs, code and docs for a new issue
type Retriever struct {
	db       VectorSearcher
	embedder embedding.Provider
	cfg      config.EvidenceConfig
}

// NewRetriever creates a retriever over the given vector store and embedder
func NewRetriever(db VectorSearcher, embedder embedding.Provider, cfg config.EvidenceConfig) *Retriever {
	return &Retriever{
		db:       db,
		embedder: embedder,
		cfg:      cfg,
	}
}

// FindSimilar searches one corpus for items similar to the query text
func (r *Retriever) FindSimilar(ctx context.Context, org, repo string, kind models.EvidenceKind, text string, limit int, minSimilarity float64) ([]models.EvidenceItem, error) {
	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	collection := vectordb.CollectionName(org, repo, kind)
	items, err := r.db.Search(ctx, collection, kind, vector, limit, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s corpus: %w", kind, err)
	}

	return items, nil
}

// Bundle gathers evidence from all corpora for one issue. The issue is
// embedded once and the vector reused per corpus. A corpus whose search
// fails is skipped with a warning; only an embedding failure is fatal.
func (r *Retriever) Bundle(ctx context.Context, issue *models.Issue) (*models.EvidenceBundle, error) {
	text := embedding.PrepareIssueText(issue.Title, issue.Body)
	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed issue: %w", err)
	}

	bundle := &models.EvidenceBundle{}

	corpora := []struct {
		kind   models.EvidenceKind
		minSim float64
		dest   *[]models.EvidenceItem
	}{
		{models.EvidenceIssue, r.cfg.IssueMinSimilarity, &bundle.Issues},
		{models.EvidencePR, r.cfg.PRMinSimilarity, &bundle.PRs},
		{models.EvidenceCode, r.cfg.CodeMinSimilarity, &bundle.Code},
		{models.EvidenceDoc, r.cfg.DocMinSimilarity, &bundle.Docs},
	}

	for _, corpus := range corpora {
		collection := vectordb.CollectionName(issue.Org, issue.Repo, corpus.kind)

		// The issue corpus excludes the issue being triaged at query
		// time; the other corpora cannot contain it.
		var items []models.EvidenceItem
		if corpus.kind == models.EvidenceIssue {
			items, err = r.db.SearchExcluding(ctx, collection, corpus.kind, vector, r.cfg.Limit, corpus.minSim, issue.Number)
		} else {
			items, err = r.db.Search(ctx, collection, corpus.kind, vector, r.cfg.Limit, corpus.minSim)
		}
		if err != nil {
			log.Printf("Warning: %s search failed for %s#%d: %v", corpus.kind, issue.FullRepo(), issue.Number, err)
			continue
		}
		*corpus.dest = items
	}

	return bundle, nil
}
