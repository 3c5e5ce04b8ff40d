package main

import (
	"context"
	"fmt"
	"os"

	"github.com/wardenlabs/warden/domain"
	"github.com/wardenlabs/warden/internal/analyzer"
	"github.com/wardenlabs/warden/internal/cache"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/constants"
	"github.com/wardenlabs/warden/internal/embed"
	"github.com/wardenlabs/warden/internal/store"
	"github.com/wardenlabs/warden/service"
)

// buildPipeline assembles the pipeline service from configuration. Optional
// collaborators (store, cache, embedding provider) are wired only when
// configured; a missing backend degrades the pipeline, never blocks it.
func buildPipeline(ctx context.Context, cfg *config.Config, showProgress bool) (*service.PipelineService, error) {
	capabilities := resolveCapabilities(cfg)

	executor := service.NewParallelExecutorFromConfig(&cfg.Analysis).
		WithProgress(service.NewProgressManager(showProgress))
	opts := []service.PipelineOption{service.WithExecutor(executor)}

	repo, err := buildRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		opts = append(opts, service.WithRepository(repo))
	}

	if cfg.Cache.URL != "" {
		findingCache, cacheErr := cache.NewRedisCache(ctx, cfg.Cache.URL)
		if cacheErr != nil {
			fmt.Fprintf(os.Stderr, "warning: cache unavailable, continuing without it: %v\n", cacheErr)
		} else {
			opts = append(opts, service.WithCache(findingCache))
		}
	}

	if cfg.Embedding.Endpoint != "" {
		governor := embed.NewGovernor(cfg.Embedding.DailyBudget, cfg.Embedding.MonthlyBudget)
		provider := embed.NewClient(&cfg.Embedding, governor)
		detector := analyzer.NewDuplicateDetector(provider, &cfg.Dedup)
		opts = append(opts, service.WithDuplicateDetector(detector))
	}

	return service.NewPipelineService(cfg, capabilities, opts...), nil
}

// buildRepository selects the finding store backend
func buildRepository(ctx context.Context, cfg *config.Config) (domain.FindingRepository, error) {
	switch cfg.Store.Backend {
	case "":
		return nil, nil
	case "memory":
		return store.NewMemoryStore(), nil
	case "arango":
		repo, err := store.NewArangoStore(ctx, &cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to finding store: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

// resolveCapabilities freezes capability flags for the run. Semantic
// deduplication additionally requires a configured embedding endpoint.
func resolveCapabilities(cfg *config.Config) domain.CapabilityResolver {
	enabled := make(map[string]bool, len(cfg.Analysis.Capabilities))
	for name, on := range cfg.Analysis.Capabilities {
		enabled[name] = on
	}
	if cfg.Embedding.Endpoint == "" {
		enabled[constants.CapabilitySemanticDedup] = false
	}
	return service.NewStaticCapabilityResolver(enabled)
}
