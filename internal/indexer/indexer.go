package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/oss-triage/gh-triage/internal/embedding"
	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/oss-triage/gh-triage/internal/vectordb"
	"github.com/oss-triage/gh-triage/pkg/models"
)

// Indexer bulk-loads repository history into the vector database.
// Issues and pull requests land in separate collections so retrieval
// can weight them differently.
type Indexer struct {
	cfg      *config.Config
	gh       *github.Client
	embedder *embedding.FallbackProvider
	vdb      *vectordb.Client
	dryRun   bool
}

// NewIndexer creates a bulk indexer from config
func NewIndexer(cfg *config.Config, dryRun bool) (*Indexer, error) {
	gh, err := github.NewClient()
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.NewFallbackProvider(&cfg.Embedding)
	if err != nil {
		return nil, err
	}

	vdb, err := vectordb.NewClient(&cfg.Qdrant)
	if err != nil {
		return nil, err
	}

	return &Indexer{
		cfg:      cfg,
		gh:       gh,
		embedder: embedder,
		vdb:      vdb,
		dryRun:   dryRun,
	}, nil
}

// Close releases resources
func (idx *Indexer) Close() error {
	idx.embedder.Close()
	return idx.vdb.Close()
}

// Reset drops every collection for a repository so a fresh index can be
// built from scratch. Missing collections are skipped.
func (idx *Indexer) Reset(ctx context.Context, fullRepo string) error {
	org, repo, err := github.ParseRepo(fullRepo)
	if err != nil {
		return err
	}

	kinds := []models.EvidenceKind{
		models.EvidenceIssue,
		models.EvidencePR,
		models.EvidenceCode,
		models.EvidenceDoc,
	}
	for _, kind := range kinds {
		name := vectordb.CollectionName(org, repo, kind)
		exists, err := idx.vdb.CollectionExists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check collection %s: %w", name, err)
		}
		if !exists {
			continue
		}
		if idx.dryRun {
			fmt.Printf("Would delete collection %s\n", name)
			continue
		}
		if err := idx.vdb.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", name, err)
		}
		fmt.Printf("Deleted collection %s\n", name)
	}
	return nil
}

// IndexRepo indexes all issues and pull requests from a repository
func (idx *Indexer) IndexRepo(ctx context.Context, fullRepo string, batchSize int) (*models.IndexStats, error) {
	start := time.Now()
	stats := &models.IndexStats{}

	org, repo, err := github.ParseRepo(fullRepo)
	if err != nil {
		return nil, err
	}

	exists, err := idx.gh.RepoExists(ctx, org, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to check repository: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("repository %s not found", fullRepo)
	}

	issueCollection := vectordb.CollectionName(org, repo, models.EvidenceIssue)
	prCollection := vectordb.CollectionName(org, repo, models.EvidencePR)
	if !idx.dryRun {
		for _, name := range []string{issueCollection, prCollection} {
			if err := idx.vdb.EnsureCollection(ctx, name); err != nil {
				return nil, fmt.Errorf("failed to ensure collection %s: %w", name, err)
			}
		}
	}

	fmt.Printf("Fetching issues from %s...\n", fullRepo)
	all, err := idx.gh.ListAllIssues(ctx, org, repo, "all", batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues: %w", err)
	}
	stats.TotalIssues = len(all)
	fmt.Printf("Found %d issues and pull requests\n", len(all))

	var issues, prs []*models.Issue
	for _, issue := range all {
		if issue.Title == "" && issue.Body == "" {
			stats.Skipped++
			continue
		}
		if issue.IsPull {
			prs = append(prs, issue)
		} else {
			issues = append(issues, issue)
		}
	}

	stats.Issues = idx.indexCorpus(ctx, issueCollection, issues, batchSize, stats)
	stats.PRs = idx.indexCorpus(ctx, prCollection, prs, batchSize, stats)

	stats.DurationMs = int(time.Since(start).Milliseconds())
	return stats, nil
}

// indexCorpus embeds and upserts one corpus in batches, returning the
// number of items indexed. Batch failures are counted, not fatal.
func (idx *Indexer) indexCorpus(ctx context.Context, collection string, items []*models.Issue, batchSize int, stats *models.IndexStats) int {
	indexed := 0
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[i:end]

		if err := idx.indexBatch(ctx, collection, batch); err != nil {
			fmt.Printf("Warning: batch %d-%d failed: %v\n", i, end, err)
			stats.Errors += len(batch)
			continue
		}

		indexed += len(batch)
		fmt.Printf("Indexed %d/%d into %s\n", indexed, len(items), collection)
	}
	return indexed
}

func (idx *Indexer) indexBatch(ctx context.Context, collection string, issues []*models.Issue) error {
	texts := make([]string, len(issues))
	for i, issue := range issues {
		texts[i] = embedding.PrepareIssueText(issue.Title, issue.Body)
	}

	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if idx.dryRun {
		return nil
	}

	if err := idx.vdb.UpsertIssueBatch(ctx, collection, issues, vectors); err != nil {
		return fmt.Errorf("failed to upsert batch: %w", err)
	}
	return nil
}

// IndexSingleIssue indexes one freshly fetched issue or pull request
func (idx *Indexer) IndexSingleIssue(ctx context.Context, issue *models.Issue) error {
	kind := models.EvidenceIssue
	if issue.IsPull {
		kind = models.EvidencePR
	}
	collection := vectordb.CollectionName(issue.Org, issue.Repo, kind)

	text := embedding.PrepareIssueText(issue.Title, issue.Body)
	vector, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}

	if idx.dryRun {
		return nil
	}

	if err := idx.vdb.EnsureCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}
	return idx.vdb.UpsertIssue(ctx, collection, issue, vector)
}
