package main

import (
	"context"
	"fmt"
	"log/slog"

	"orderparse/internal/config"
	"orderparse/internal/parser"
	"orderparse/internal/parser/ner"
	"orderparse/internal/port"
	"orderparse/internal/repository/file"
	"orderparse/internal/repository/sqlite"
	"orderparse/internal/service"
)

// app holds the wired pipeline for the commands that parse documents.
type app struct {
	extraction service.ExtractionService
	stats      *service.UsageStats
	persist    bool
	closeRepo  func() error
	logger     *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	var entities port.EntityExtractor
	if cfg.NER.Enabled {
		model, err := ner.LoadHTTPModel(ctx, &cfg.NER)
		if err != nil {
			return nil, fmt.Errorf("loading NER model (set NER_ENABLED=false to run without it): %w", err)
		}
		entities = ner.NewExtractor(model)
	} else {
		logger.Warn("ner.disabled")
	}

	policy := parser.RetryPolicy{
		MaxAttempts:  uint(max(cfg.LLM.MaxRetries, 1)),
		InitialDelay: cfg.LLM.RetryDelay,
	}
	chain, err := parser.BuildCompleterChain(&cfg.LLM, policy, logger)
	if err != nil {
		return nil, fmt.Errorf("building LLM providers: %w", err)
	}
	llm := parser.NewLLMExtractor(chain, parser.LLMExtractorConfig{
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		BaseConfidence: cfg.LLM.BaseConfidence,
	}, logger)

	a := &app{persist: cfg.Stats.Persist, closeRepo: func() error { return nil }, logger: logger}
	var repo port.UsageStatsRepository
	if a.persist {
		r, closeRepo, err := openStatsRepo(ctx, cfg.Stats)
		if err != nil {
			return nil, err
		}
		repo, a.closeRepo = r, closeRepo
	}
	a.stats = service.NewUsageStats(repo)
	if err := a.stats.Restore(ctx); err != nil {
		logger.Warn("stats.restore.failed", "error", err)
	}

	a.extraction = service.NewExtractionService(entities, llm, a.stats, service.ExtractionConfig{
		ConfidenceThreshold: cfg.Pipeline.ConfidenceThreshold,
		ForceLLM:            cfg.Pipeline.UseLLMParser,
	}, logger)
	return a, nil
}

// Close persists the usage counters and releases the stats store.
func (a *app) Close() {
	if err := a.stats.Persist(context.Background()); err != nil {
		a.logger.Error("stats.persist.failed", "error", err)
	}
	if err := a.closeRepo(); err != nil {
		a.logger.Error("stats.close.failed", "error", err)
	}
}

// openStatsRepo opens the usage counter store selected by c.Backend.
func openStatsRepo(ctx context.Context, c config.StatsConfig) (port.UsageStatsRepository, func() error, error) {
	switch c.Backend {
	case "", "file":
		return file.NewUsageStatsRepository(c.Path), func() error { return nil }, nil
	case "sqlite":
		repo, err := sqlite.OpenUsageStatsRepository(ctx, c.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening stats database: %w", err)
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown stats backend %q", c.Backend)
	}
}
