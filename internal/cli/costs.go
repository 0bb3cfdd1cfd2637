package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCostsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show daily API spend and savings",
		Long:  `Print the daily cost ledger: API calls, spend, savings from rules and caching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			since := time.Now().UTC().AddDate(0, 0, -days)
			rows, err := st.DailyCosts(ctx, since)
			if err != nil {
				return fmt.Errorf("failed to load costs: %w", err)
			}

			if len(rows) == 0 {
				fmt.Printf("No cost data in the last %d days\n", days)
				return nil
			}

			fmt.Printf("%-12s %8s %10s %10s %6s %8s %13s\n",
				"Day", "Calls", "Cost", "Saved", "Hits", "Misses", "Cached Tokens")

			var totalCalls, totalHits, totalMisses int
			var totalCost, totalSaved float64
			var totalTokens int64
			for _, row := range rows {
				fmt.Printf("%-12s %8d %10.4f %10.4f %6d %8d %13d\n",
					row.Day.Format("2006-01-02"), row.APICalls, row.CostUSD, row.CostSavedUSD,
					row.CacheHits, row.CacheMisses, row.CachedTokens)
				totalCalls += row.APICalls
				totalCost += row.CostUSD
				totalSaved += row.CostSavedUSD
				totalHits += row.CacheHits
				totalMisses += row.CacheMisses
				totalTokens += row.CachedTokens
			}

			fmt.Printf("%-12s %8d %10.4f %10.4f %6d %8d %13d\n",
				"total", totalCalls, totalCost, totalSaved, totalHits, totalMisses, totalTokens)

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "number of days to report")

	return cmd
}
