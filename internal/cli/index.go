package cli

import (
	"context"
	"fmt"

	"github.com/oss-triage/gh-triage/internal/indexer"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	var (
		repo      string
		filesDir  string
		batchSize int
		reset     bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Bulk index repository history for similarity search",
		Long: `Embed and index issues and pull requests into the vector database.
With --files, a local checkout is also chunked and indexed: documentation
files feed the docs corpus, recognized source files the code corpus.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			idx, err := indexer.NewIndexer(cfg, dryRun)
			if err != nil {
				return fmt.Errorf("failed to create indexer: %w", err)
			}
			defer idx.Close()

			if reset {
				if err := idx.Reset(ctx, repo); err != nil {
					return fmt.Errorf("reset failed: %w", err)
				}
			}

			stats, err := idx.IndexRepo(ctx, repo, batchSize)
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
			fmt.Printf("Indexed %d issues and %d PRs of %d (%d skipped, %d errors) in %dms\n",
				stats.Issues, stats.PRs, stats.TotalIssues, stats.Skipped, stats.Errors, stats.DurationMs)

			if filesDir != "" {
				fileStats, err := idx.IndexFiles(ctx, repo, filesDir)
				if err != nil {
					return fmt.Errorf("file indexing failed: %w", err)
				}
				fmt.Printf("Indexed file chunks from %s (%d files skipped, %d errors)\n",
					filesDir, fileStats.Skipped, fileStats.Errors)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "repository to index (owner/repo)")
	cmd.Flags().StringVar(&filesDir, "files", "", "local checkout to index as code/doc chunks")
	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "number of issues to fetch and embed per batch")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing collections before indexing")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}
