package cli

import (
	"context"
	"fmt"

	"github.com/oss-triage/gh-triage/internal/config"
	"github.com/oss-triage/gh-triage/internal/embedding"
	"github.com/oss-triage/gh-triage/internal/evidence"
	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/oss-triage/gh-triage/internal/llm"
	"github.com/oss-triage/gh-triage/internal/store"
	"github.com/oss-triage/gh-triage/internal/triage"
	"github.com/oss-triage/gh-triage/internal/vectordb"
	"github.com/oss-triage/gh-triage/internal/websearch"
)

// loadConfig locates, loads and validates the config file
func loadConfig() (*config.Config, error) {
	cfgPath := config.FindConfigPath(cfgFile)
	if cfgPath == "" {
		return nil, fmt.Errorf("config file not found")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Printf("config error: %v\n", e)
		}
		return nil, fmt.Errorf("invalid configuration")
	}

	return cfg, nil
}

// openStore picks the backing store. No DSN (or --dry-run) means the
// in-memory store: caches and cost counters last for the process only.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.DSN == "" || dryRun {
		return store.NewMemoryStore(), nil
	}

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return st, nil
}

// pipeline holds the wired triage engine and everything it owns
type pipeline struct {
	engine  *triage.Engine
	runner  *triage.BatchRunner
	gh      *github.Client
	store   store.Store
	closers []func()
}

// buildPipeline wires the full engine from config
func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	p := &pipeline{}

	gh, err := github.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	p.gh = gh

	embedder, err := embedding.NewFallbackProvider(&cfg.Embedding)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	p.closers = append(p.closers, func() { embedder.Close() })

	vdb, err := vectordb.NewClient(&cfg.Qdrant)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create vector DB client: %w", err)
	}
	p.closers = append(p.closers, func() { vdb.Close() })

	st, err := openStore(ctx, cfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.store = st
	p.closers = append(p.closers, st.Close)

	provider, err := llm.NewAnthropicProvider(&cfg.Anthropic)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	p.closers = append(p.closers, func() { provider.Close() })

	var searcher triage.Searcher
	if cfg.Search.Enabled {
		searcher = websearch.NewClient(cfg.Search, st)
	}

	retriever := evidence.NewRetriever(vdb, embedder, cfg.Evidence)
	decider := triage.NewDecider(provider, st, gh, cfg.Triage)
	p.engine = triage.NewEngine(gh, retriever, searcher, triage.NewRuleEngine(cfg.Triage), decider, st)
	p.runner = triage.NewBatchRunner(p.engine)

	return p, nil
}

// Close releases pipeline resources in reverse acquisition order
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}
