package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/oss-triage/gh-triage/internal/triage"
	"github.com/spf13/cobra"
)

func newTriageCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "triage <owner/repo> <issue-number>",
		Short: "Triage a single issue",
		Long: `Analyze one issue and print the recommended triage decision.
Rules and cached responses are tried before calling the model.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			org, repo, err := github.ParseRepo(args[0])
			if err != nil {
				return err
			}
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid issue number: %s", args[1])
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

			fmt.Printf("Triaging %s/%s#%d...\n", org, repo, number)
			decision, err := p.engine.Triage(ctx, org, repo, number)
			if err != nil {
				return fmt.Errorf("triage failed: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(decision)
			}

			printDecision(decision)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full decision as JSON")

	return cmd
}

func printDecision(d *triage.NormalizedDecision) {
	fmt.Println("\n=== Triage Decision ===")
	fmt.Printf("\nDecision:   %s\n", d.Kind)
	fmt.Printf("Category:   %s\n", d.PrimaryCategory)
	fmt.Printf("Confidence: %.0f%%\n", d.Confidence*100)
	fmt.Printf("Priority:   %d\n", d.PriorityScore)

	switch {
	case d.RuleMatched != "":
		fmt.Printf("Source:     rule (%s)\n", d.RuleMatched)
	case d.FromCache:
		fmt.Println("Source:     response cache")
	default:
		fmt.Println("Source:     model")
	}

	fmt.Printf("\n%s\n", d.PrimaryMessage)
	for _, bullet := range d.EvidenceBullets {
		fmt.Printf("  - %s\n", bullet)
	}

	if d.DuplicateOf > 0 {
		fmt.Printf("\nDuplicate of: #%d\n", d.DuplicateOf)
	}

	if len(d.RelatedLinks) > 0 {
		fmt.Println("\nRelated:")
		for _, link := range d.RelatedLinks {
			fmt.Printf("  - %s: %s\n", link.Text, link.URL)
		}
	}

	if d.DraftResponse != "" {
		fmt.Printf("\n--- Draft response ---\n%s\n", d.DraftResponse)
	}

	if d.Cost != nil {
		fmt.Printf("\nCost: $%.4f (%d in / %d out, %d cache-read tokens)\n",
			d.Cost.TotalCostUSD, d.Cost.InputTokens, d.Cost.OutputTokens, d.Cost.CacheReadTokens)
	}
	if d.CostSaved > 0 {
		fmt.Printf("Saved: $%.4f\n", d.CostSaved)
	}
	if d.ImagesAnalyzed > 0 {
		fmt.Printf("Images analyzed: %d\n", d.ImagesAnalyzed)
	}
	if d.Error != "" {
		fmt.Printf("\nWarning: %s\n", d.Error)
	}
}
