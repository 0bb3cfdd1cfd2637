package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the full application configuration
type Config struct {
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Database  DatabaseConfig  `yaml:"database"`
	Triage    TriageConfig    `yaml:"triage"`
	Search    SearchConfig    `yaml:"search"`
	Evidence  EvidenceConfig  `yaml:"evidence"`
}

// QdrantConfig contains Qdrant connection settings
type QdrantConfig struct {
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"`
	UseGRPC bool   `yaml:"use_grpc"`
}

// EmbeddingConfig contains embedding provider settings
type EmbeddingConfig struct {
	Primary  ProviderConfig `yaml:"primary"`
	Fallback ProviderConfig `yaml:"fallback"`
}

// ProviderConfig contains settings for an embedding provider
type ProviderConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
}

// AnthropicConfig contains the decision-model settings
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// DatabaseConfig contains the cache/cost store connection settings.
// An empty DSN falls back to the in-memory store (caching and cost
// counters then last only for the process lifetime).
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// TriageConfig contains decision thresholds, cache TTLs and pricing.
// The threshold and TTL defaults are business tuning inherited from
// production use, not derived values; treat them as tunable.
type TriageConfig struct {
	DuplicateThreshold float64 `yaml:"duplicate_threshold"`
	DocsThreshold      float64 `yaml:"docs_threshold"`
	CodeThreshold      float64 `yaml:"code_threshold"`

	FeatureKeywords []string `yaml:"feature_keywords"`

	ResponseCacheTTLDays int     `yaml:"response_cache_ttl_days"`
	RuleCostSaved        float64 `yaml:"rule_cost_saved"`
	CacheCostSaved       float64 `yaml:"cache_cost_saved"`

	BodyPromptLimit int `yaml:"body_prompt_limit"`
	MaxImages       int `yaml:"max_images"`
	MaxRefLinks     int `yaml:"max_ref_links"`

	Pricing PricingConfig `yaml:"pricing"`
}

// PricingConfig contains per-million-token rates and cache multipliers
type PricingConfig struct {
	InputPerMTok         float64 `yaml:"input_per_mtok"`
	OutputPerMTok        float64 `yaml:"output_per_mtok"`
	CacheWriteMultiplier float64 `yaml:"cache_write_multiplier"`
	CacheReadMultiplier  float64 `yaml:"cache_read_multiplier"`
}

// SearchConfig contains external web search settings
type SearchConfig struct {
	Enabled          bool   `yaml:"enabled"`
	StackOverflowKey string `yaml:"stackoverflow_key"`
	GitHubToken      string `yaml:"github_token"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	MaxResults       int    `yaml:"max_results"`
}

// EvidenceConfig contains similarity-search limits per corpus
type EvidenceConfig struct {
	IssueMinSimilarity float64 `yaml:"issue_min_similarity"`
	PRMinSimilarity    float64 `yaml:"pr_min_similarity"`
	CodeMinSimilarity  float64 `yaml:"code_min_similarity"`
	DocMinSimilarity   float64 `yaml:"doc_min_similarity"`
	Limit              int     `yaml:"limit"`
}

// Load reads and parses config from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	expandConfigEnvVars(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// FindConfigPath looks for config in common locations
func FindConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	paths := []string{
		".github/triage.yaml",
		".github/triage.yml",
		"triage.yaml",
		"triage.yml",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homePath := filepath.Join(home, ".config", "gh-triage", "config.yaml")
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}

	return ""
}

// defaultFeatureKeywords flags feature-request wording for the
// exists-in-code rule. A plain substring list, not a classifier.
var defaultFeatureKeywords = []string{
	"add", "support", "implement", "allow", "enable",
	"would be nice", "could we", "feature request",
	"enhancement", "suggestion",
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.Anthropic.MaxTokens == 0 {
		cfg.Anthropic.MaxTokens = 500
	}

	if cfg.Triage.DuplicateThreshold == 0 {
		cfg.Triage.DuplicateThreshold = 0.95
	}
	if cfg.Triage.DocsThreshold == 0 {
		cfg.Triage.DocsThreshold = 0.80
	}
	if cfg.Triage.CodeThreshold == 0 {
		cfg.Triage.CodeThreshold = 0.80
	}
	if len(cfg.Triage.FeatureKeywords) == 0 {
		cfg.Triage.FeatureKeywords = defaultFeatureKeywords
	}
	if cfg.Triage.ResponseCacheTTLDays == 0 {
		cfg.Triage.ResponseCacheTTLDays = 7
	}
	if cfg.Triage.RuleCostSaved == 0 {
		cfg.Triage.RuleCostSaved = 0.02
	}
	if cfg.Triage.CacheCostSaved == 0 {
		cfg.Triage.CacheCostSaved = 0.015
	}
	if cfg.Triage.BodyPromptLimit == 0 {
		cfg.Triage.BodyPromptLimit = 2000
	}
	if cfg.Triage.MaxImages == 0 {
		cfg.Triage.MaxImages = 3
	}
	if cfg.Triage.MaxRefLinks == 0 {
		cfg.Triage.MaxRefLinks = 5
	}

	if cfg.Triage.Pricing.InputPerMTok == 0 {
		cfg.Triage.Pricing.InputPerMTok = 3.0
	}
	if cfg.Triage.Pricing.OutputPerMTok == 0 {
		cfg.Triage.Pricing.OutputPerMTok = 15.0
	}
	if cfg.Triage.Pricing.CacheWriteMultiplier == 0 {
		cfg.Triage.Pricing.CacheWriteMultiplier = 1.25
	}
	if cfg.Triage.Pricing.CacheReadMultiplier == 0 {
		cfg.Triage.Pricing.CacheReadMultiplier = 0.1
	}

	if cfg.Search.CacheTTLHours == 0 {
		cfg.Search.CacheTTLHours = 24
	}
	if cfg.Search.TimeoutSeconds == 0 {
		cfg.Search.TimeoutSeconds = 5
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}

	if cfg.Evidence.IssueMinSimilarity == 0 {
		cfg.Evidence.IssueMinSimilarity = 0.60
	}
	if cfg.Evidence.PRMinSimilarity == 0 {
		cfg.Evidence.PRMinSimilarity = 0.75
	}
	if cfg.Evidence.CodeMinSimilarity == 0 {
		cfg.Evidence.CodeMinSimilarity = 0.60
	}
	if cfg.Evidence.DocMinSimilarity == 0 {
		cfg.Evidence.DocMinSimilarity = 0.60
	}
	if cfg.Evidence.Limit == 0 {
		cfg.Evidence.Limit = 10
	}

	if cfg.Embedding.Primary.Dimensions == 0 {
		cfg.Embedding.Primary.Dimensions = 768
	}
	if cfg.Embedding.Fallback.Dimensions == 0 {
		cfg.Embedding.Fallback.Dimensions = 768
	}
}
