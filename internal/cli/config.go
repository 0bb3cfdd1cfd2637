package cli

import (
	"fmt"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.FindConfigPath(cfgFile)
			if cfgPath == "" {
				return fmt.Errorf("config file not found")
			}

			fmt.Printf("Validating config: %s\n", cfgPath)

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			errs := config.Validate(cfg)
			if len(errs) > 0 {
				fmt.Println("\nValidation errors:")
				for _, e := range errs {
					fmt.Printf("  - %v\n", e)
				}
				return fmt.Errorf("configuration is invalid")
			}

			fmt.Println("\nConfiguration is valid!")
			fmt.Printf("  - Qdrant URL: %s\n", cfg.Qdrant.URL)
			fmt.Printf("  - Primary embedding: %s (%s)\n", cfg.Embedding.Primary.Provider, cfg.Embedding.Primary.Model)
			fmt.Printf("  - Model: %s\n", cfg.Anthropic.Model)

			backend := "in-memory"
			if cfg.Database.DSN != "" {
				backend = "postgres"
			}
			fmt.Printf("  - Store: %s\n", backend)
			fmt.Printf("  - External search: %v\n", cfg.Search.Enabled)
			fmt.Printf("  - Thresholds: duplicate %.2f, docs %.2f, code %.2f\n",
				cfg.Triage.DuplicateThreshold, cfg.Triage.DocsThreshold, cfg.Triage.CodeThreshold)

			return nil
		},
	}
}
