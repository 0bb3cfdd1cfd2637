package config

import (
	"fmt"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Qdrant.URL == "" {
		errs = append(errs, ValidationError{"qdrant.url", "required"})
	}

	if cfg.Embedding.Primary.Provider == "" {
		errs = append(errs, ValidationError{"embedding.primary.provider", "required"})
	} else if cfg.Embedding.Primary.Provider != "gemini" && cfg.Embedding.Primary.Provider != "openai" {
		errs = append(errs, ValidationError{"embedding.primary.provider", "must be 'gemini' or 'openai'"})
	}

	if cfg.Embedding.Primary.APIKey == "" {
		errs = append(errs, ValidationError{"embedding.primary.api_key", "required"})
	}

	if cfg.Anthropic.APIKey == "" {
		errs = append(errs, ValidationError{"anthropic.api_key", "required"})
	}

	for _, t := range []struct {
		field string
		value float64
	}{
		{"triage.duplicate_threshold", cfg.Triage.DuplicateThreshold},
		{"triage.docs_threshold", cfg.Triage.DocsThreshold},
		{"triage.code_threshold", cfg.Triage.CodeThreshold},
		{"evidence.issue_min_similarity", cfg.Evidence.IssueMinSimilarity},
		{"evidence.pr_min_similarity", cfg.Evidence.PRMinSimilarity},
		{"evidence.code_min_similarity", cfg.Evidence.CodeMinSimilarity},
		{"evidence.doc_min_similarity", cfg.Evidence.DocMinSimilarity},
	} {
		if t.value < 0 || t.value > 1 {
			errs = append(errs, ValidationError{t.field, "must be between 0 and 1"})
		}
	}

	if cfg.Triage.ResponseCacheTTLDays < 0 {
		errs = append(errs, ValidationError{"triage.response_cache_ttl_days", "must not be negative"})
	}
	if cfg.Search.CacheTTLHours < 0 {
		errs = append(errs, ValidationError{"search.cache_ttl_hours", "must not be negative"})
	}

	if cfg.Triage.Pricing.InputPerMTok < 0 || cfg.Triage.Pricing.OutputPerMTok < 0 {
		errs = append(errs, ValidationError{"triage.pricing", "rates must not be negative"})
	}
	if cfg.Triage.Pricing.CacheReadMultiplier >= 1 && cfg.Triage.Pricing.CacheReadMultiplier != 0 {
		errs = append(errs, ValidationError{"triage.pricing.cache_read_multiplier", "must be below 1 (cache reads are discounted)"})
	}

	return errs
}
