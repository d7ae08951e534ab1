package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"orderparse/internal/domain"
	"orderparse/internal/parser"
	"orderparse/internal/parser/ner"
	"orderparse/internal/parser/pattern"
	"orderparse/internal/port"
	"orderparse/internal/validator"
)

// ExtractionConfig holds the orchestration settings read at startup.
type ExtractionConfig struct {
	// ConfidenceThreshold is the overall confidence below which the LLM stage is tried.
	ConfidenceThreshold float64
	// ForceLLM sends every document straight to the LLM stage.
	ForceLLM bool
}

// ParseOptions overrides ExtractionConfig for a single call.
type ParseOptions struct {
	ForceLLM bool
}

// ExtractionService turns document text into a structured order.
type ExtractionService interface {
	// ParseOrderDocument always returns a result; internal failures degrade to a
	// best-effort result instead of an error.
	ParseOrderDocument(ctx context.Context, text string, opts ...ParseOptions) *domain.ParseResult
}

type extractionService struct {
	regex      *pattern.Extractor
	entities   port.EntityExtractor
	mapper     *ner.Mapper
	llm        port.LLMExtractor
	aggregator *parser.ConfidenceAggregator
	stats      *UsageStats
	cfg        ExtractionConfig
	logger     *slog.Logger
}

// NewExtractionService creates an ExtractionService. entities may be nil when NER is disabled,
// llm may be nil to disable escalation, and stats may be nil when usage is not tracked.
func NewExtractionService(
	entities port.EntityExtractor,
	llm port.LLMExtractor,
	stats *UsageStats,
	cfg ExtractionConfig,
	logger *slog.Logger,
) ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractionService{
		regex:      pattern.NewExtractor(),
		entities:   entities,
		mapper:     ner.NewMapper(),
		llm:        llm,
		aggregator: parser.NewConfidenceAggregator(),
		stats:      stats,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *extractionService) ParseOrderDocument(ctx context.Context, text string, opts ...ParseOptions) (result *domain.ParseResult) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := s.logger.With("request_id", requestID)

	force := s.cfg.ForceLLM
	for _, o := range opts {
		force = force || o.ForceLLM
	}

	// best is the result to fall back to if a later stage panics.
	var best *domain.ParseResult

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "extraction.panic", "panic", r, "stack", string(debug.Stack()))
			if best == nil {
				best = domain.NewParseResult(&domain.StructuredOrder{}, domain.ConfidenceMap{})
				best.Error = fmt.Sprintf("internal error: %v", r)
				best.Path = domain.PathRegex
				if force {
					best.Path = domain.PathLLMForced
				}
			}
			result = best
		}
		result.RequestID = requestID
		result.ProcessingTimeMS = time.Since(start).Milliseconds()
		if s.stats != nil {
			s.stats.Increment(result.Path)
		}
		logger.InfoContext(ctx, "extraction.done",
			"parser_used", result.Path,
			"overall_confidence", result.Confidence.Overall,
			"line_items", len(result.LineItems),
			"failed", result.Failed(),
			"duration_ms", result.ProcessingTimeMS,
		)
	}()

	if force {
		res := s.extractWithLLM(ctx, text)
		res.Path = domain.PathLLMForced
		return res
	}

	order, nerRan := s.extractWithRules(ctx, logger, text)
	conf := s.aggregator.Aggregate(order)
	validator.ApplyWarnings(order, s.cfg.ConfidenceThreshold)

	best = domain.NewParseResult(order, conf)
	best.Path = domain.PathRegex
	if nerRan {
		best.Path = domain.PathRegexNER
	}

	if conf.Overall >= s.cfg.ConfidenceThreshold || s.llm == nil {
		return best
	}

	logger.InfoContext(ctx, "extraction.escalate",
		"overall_confidence", conf.Overall,
		"threshold", s.cfg.ConfidenceThreshold,
	)
	res := s.extractWithLLM(ctx, text)
	if res.Failed() {
		logger.WarnContext(ctx, "extraction.llm_fallback.failed",
			"failure_kind", res.FailureKind,
			"error", res.Error,
		)
		return best
	}
	res.Path = domain.PathLLMFallback
	return res
}

// extractWithRules runs the regex stage and, when it left a required field empty, the NER stage.
func (s *extractionService) extractWithRules(ctx context.Context, logger *slog.Logger, text string) (*domain.StructuredOrder, bool) {
	order := s.regex.Extract(text)
	missing := order.MissingFields()
	logger.DebugContext(ctx, "extraction.regex.done", "missing", missing)

	nerRan := false
	if len(missing) > 0 && s.entities != nil {
		entities, err := s.entities.Extract(ctx, text)
		if err != nil {
			logger.WarnContext(ctx, "extraction.ner.failed", "error", err)
		} else {
			nerRan = true
			provenance := parser.MergeOrders(order, s.mapper.Map(entities))
			logger.DebugContext(ctx, "extraction.ner.done",
				"entities", len(entities),
				"provenance", provenance,
			)
		}
	}

	order.LineItems = validator.ValidateLineItems(order.LineItems)
	return order, nerRan
}

func (s *extractionService) extractWithLLM(ctx context.Context, text string) *domain.ParseResult {
	if s.llm == nil {
		return domain.EmptyResultWithError(domain.FailureLLMPermanent, domain.ErrMissingAPIKey)
	}
	res := s.llm.Extract(ctx, text)
	if res == nil {
		return domain.EmptyResultWithError(domain.FailureLLMPermanent, domain.ErrEmptyCompletion)
	}
	validator.ApplyWarnings(&res.ExtractionDetails, s.cfg.ConfidenceThreshold)
	return res
}
