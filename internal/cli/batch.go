package cli

import (
	"context"
	"fmt"

	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var (
		state string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "batch <owner/repo>",
		Short: "Triage every open issue in a repository",
		Long: `Fetch issues and run the triage pipeline over each one sequentially.
A failing issue is recorded and skipped; the batch always runs to the end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			org, repo, err := github.ParseRepo(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p, err := buildPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			exists, err := p.gh.RepoExists(ctx, org, repo)
			if err != nil {
				return fmt.Errorf("failed to check repository: %w", err)
			}
			if !exists {
				return fmt.Errorf("repository %s/%s not found", org, repo)
			}

			// Piggyback cache maintenance on batch runs
			if removed, err := p.store.CleanupExpired(ctx); err == nil && removed > 0 {
				fmt.Printf("Removed %d expired cache entries\n", removed)
			}

			fmt.Printf("Fetching %s issues from %s/%s...\n", state, org, repo)
			issues, err := p.gh.ListAllIssues(ctx, org, repo, state, 100)
			if err != nil {
				return fmt.Errorf("failed to fetch issues: %w", err)
			}

			var numbers []int
			for _, issue := range issues {
				if issue.IsPull {
					continue
				}
				numbers = append(numbers, issue.Number)
				if limit > 0 && len(numbers) >= limit {
					break
				}
			}
			fmt.Printf("Triaging %d issues\n", len(numbers))

			p.runner.Run(ctx, org, repo, numbers)

			status := p.runner.Status()
			fmt.Printf("\nBatch %s: %d/%d processed, %d errors\n",
				status.Status, status.Processed, status.Total, len(status.Errors))
			for _, e := range status.Errors {
				fmt.Printf("  #%d: %s\n", e.IssueNumber, e.Message)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "open", "issue state to triage (open, closed, all)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of issues to triage (0 = no limit)")

	return cmd
}
