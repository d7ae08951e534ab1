package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"orderparse/internal/domain"
	"orderparse/internal/port"
)

// LLMExtractorConfig holds the request parameters and the confidence base of the LLM stage.
type LLMExtractorConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	BaseConfidence float64
}

// Confidence bounds for LLM-sourced fields.
const (
	minLLMConfidence = 0.7
	maxLLMConfidence = 0.95
)

// LLMExtractor extracts an order by asking a chat completion model. It implements port.LLMExtractor.
type LLMExtractor struct {
	completer  port.ChatCompleter
	cfg        LLMExtractorConfig
	aggregator *ConfidenceAggregator
	logger     *slog.Logger
}

// NewLLMExtractor creates an LLMExtractor. A nil completer means no credential was configured;
// every call then fails permanently without touching the network.
func NewLLMExtractor(completer port.ChatCompleter, cfg LLMExtractorConfig, logger *slog.Logger) *LLMExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseConfidence == 0 {
		cfg.BaseConfidence = 0.8
	}
	return &LLMExtractor{
		completer:  completer,
		cfg:        cfg,
		aggregator: NewConfidenceAggregator(),
		logger:     logger,
	}
}

// Extract never returns nil. On failure the result is domain.EmptyResultWithError.
func (e *LLMExtractor) Extract(ctx context.Context, text string) *domain.ParseResult {
	if e.completer == nil {
		return e.fail(ctx, domain.FailureLLMPermanent, domain.ErrMissingAPIKey)
	}

	prompt, err := BuildOrderPrompt(text)
	if err != nil {
		return e.fail(ctx, domain.FailureLLMPermanent, err)
	}
	reply, model, err := e.complete(ctx, domain.ChatRequest{
		System:      OrderSystemPrompt,
		User:        prompt,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		return e.fail(ctx, FailureKindOf(err), err)
	}

	order, err := DecodeOrderReply(reply)
	if err != nil {
		return e.fail(ctx, domain.FailureLLMPermanent, err)
	}

	conf := e.fieldConfidence(order, model)
	stampLLM(order, conf)

	result := domain.NewParseResult(order, e.aggregator.Aggregate(order))
	result.Source = domain.SourceLLM
	result.Model = model

	e.logger.DebugContext(ctx, "llm.extract.done",
		"model", model,
		"field_confidence", conf,
		"line_items", len(order.LineItems),
	)
	return result
}

// complete calls the completer and returns the model that answered; that is the configured
// model unless the completer routes to another provider.
func (e *LLMExtractor) complete(ctx context.Context, req domain.ChatRequest) (string, string, error) {
	if rc, ok := e.completer.(port.RoutedCompleter); ok {
		reply, model, err := rc.CompleteWithModel(ctx, req)
		if model == "" {
			model = e.cfg.Model
		}
		return reply, model, err
	}
	reply, err := e.completer.Complete(ctx, req)
	return reply, e.cfg.Model, err
}

func (e *LLMExtractor) fail(ctx context.Context, kind domain.FailureKind, err error) *domain.ParseResult {
	e.logger.WarnContext(ctx, "llm.extract.failed", "failure_kind", kind, "error", err)
	result := domain.EmptyResultWithError(kind, err)
	result.Model = e.cfg.Model
	return result
}

// fieldConfidence is base, plus 0.05 for gpt-4 class models, plus a tenth of completeness,
// clamped to [0.7, 0.95].
func (e *LLMExtractor) fieldConfidence(order *domain.StructuredOrder, model string) float64 {
	conf := e.cfg.BaseConfidence
	if strings.Contains(strings.ToLower(model), "gpt-4") {
		conf += 0.05
	}
	conf += completeness(order) / 10
	return math.Min(maxLLMConfidence, math.Max(minLLMConfidence, conf))
}

func completeness(order *domain.StructuredOrder) float64 {
	var c float64
	if order.OrderID.Value != "" {
		c += 0.3
	}
	if order.Customer.Value != "" {
		c += 0.2
	}
	if order.ShippingAddress.Value != "" {
		c += 0.2
	}
	c += math.Min(0.3, 0.05*float64(len(order.LineItems)))
	return c
}

// stampLLM gives every populated field the same confidence and the llm source.
func stampLLM(order *domain.StructuredOrder, conf float64) {
	stamp := func(f *domain.ScoredField[string]) {
		if f.Value != "" {
			*f = domain.Scored(f.Value, conf, domain.SourceLLM)
		}
	}
	stamp(&order.Customer)
	stamp(&order.OrderID)
	stamp(&order.ShippingAddress)
	for i := range order.LineItems {
		li := &order.LineItems[i]
		li.SKU = domain.Scored(li.SKU.Value, conf, domain.SourceLLM)
		if li.Quantity.Source != domain.SourceDefault {
			li.Quantity = domain.Scored(li.Quantity.Value, conf, domain.SourceLLM)
		}
		if li.Price.Source != domain.SourceDefault {
			li.Price = domain.Scored(li.Price.Value, conf, domain.SourceLLM)
		}
	}
}

type orderReply struct {
	OrderID         flexString    `json:"order_id"`
	Customer        flexString    `json:"customer"`
	ShippingAddress flexString    `json:"shipping_address"`
	LineItems       []lineItemRaw `json:"line_items"`
}

type lineItemRaw struct {
	SKU      flexString `json:"sku"`
	Quantity *flexFloat `json:"quantity"`
	Price    *flexFloat `json:"price"`
}

// DecodeOrderReply strips code fences from a completion, validates it and decodes it into an
// order whose fields are populated but not yet scored. Items without a SKU are dropped; items
// without a quantity or price get the defaults.
func DecodeOrderReply(reply string) (*domain.StructuredOrder, error) {
	body := StripCodeFences(reply)
	if body == "" {
		return nil, domain.ErrEmptyCompletion
	}
	if err := ValidateOrderReply([]byte(body)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedReply, err)
	}
	var raw orderReply
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedReply, err)
	}

	order := &domain.StructuredOrder{
		OrderID:         domain.ScoredField[string]{Value: string(raw.OrderID)},
		Customer:        domain.ScoredField[string]{Value: string(raw.Customer)},
		ShippingAddress: domain.ScoredField[string]{Value: string(raw.ShippingAddress)},
	}
	for _, it := range raw.LineItems {
		if it.SKU == "" {
			continue
		}
		li := domain.LineItem{SKU: domain.ScoredField[string]{Value: string(it.SKU)}}
		if q, ok := it.Quantity.quantity(); ok {
			li.Quantity = domain.ScoredField[int]{Value: q, Source: domain.SourceLLM}
		} else {
			li.Quantity = domain.DefaultQuantityField()
		}
		if it.Price != nil && it.Price.ok {
			li.Price = domain.ScoredField[float64]{Value: it.Price.v, Source: domain.SourceLLM}
		} else {
			li.Price = domain.DefaultPriceField()
		}
		order.LineItems = append(order.LineItems, li)
	}
	return order, nil
}

// StripCodeFences removes a surrounding Markdown code fence and any prose around the JSON object.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if !strings.HasPrefix(s, "{") {
		start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// quantity rounds the value to a count in [0, MaxInt32]; anything outside is treated as absent.
func (f *flexFloat) quantity() (int, bool) {
	if f == nil || !f.ok {
		return 0, false
	}
	q := math.Round(f.v)
	if q < 0 || q > math.MaxInt32 {
		return 0, false
	}
	return int(q), true
}

// flexString decodes a JSON string and treats null as empty.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*f = flexString(strings.TrimSpace(s))
	return nil
}

// flexFloat decodes a JSON number or a numeric string such as "$1,250.00". Values that are
// unparseable, NaN or infinite are treated as absent.
type flexFloat struct {
	v  float64
	ok bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.Map(func(r rune) rune {
			switch r {
			case '$', '£', '€', ',', ' ':
				return -1
			}
			return r
		}, s)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	f.v, f.ok = n, true
	return nil
}
