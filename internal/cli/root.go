package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dryRun  bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "gh-triage",
	Short: "AI-powered GitHub issue triage",
	Long: `gh-triage analyzes new GitHub issues and recommends a triage decision:
close as duplicate, answer from docs, acknowledge a bug or feature, or
request more information.

Cheap checks run first: similarity rules over a Qdrant index, then a
response cache, and only then a Claude API call. Every tier is tracked
in a daily cost ledger.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "skip all persistent writes (Qdrant + database)")

	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newCostsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gh-triage version %s\n", version)
		},
	}
}
