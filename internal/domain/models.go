package domain

import "time"

// ScoredField is a candidate value together with how much it is trusted and where it came from.
type ScoredField[T any] struct {
	Value      T       `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
	Warning    bool    `json:"warning,omitempty"`
}

// Scored builds a populated ScoredField.
func Scored[T any](value T, confidence float64, source Source) ScoredField[T] {
	return ScoredField[T]{Value: value, Confidence: confidence, Source: source}
}

// IsEmpty reports whether the field carries no evidence.
func (f ScoredField[T]) IsEmpty() bool {
	return f.Source == SourceNone && f.Confidence == 0
}

// DefaultQuantityField is the placeholder used when a line item has no quantity.
func DefaultQuantityField() ScoredField[int] {
	return ScoredField[int]{Value: DefaultQuantity, Confidence: DefaultFieldConfidence, Source: SourceDefault, Warning: true}
}

// DefaultPriceField is the placeholder used when a line item has no price.
func DefaultPriceField() ScoredField[float64] {
	return ScoredField[float64]{Value: DefaultPrice, Confidence: DefaultFieldConfidence, Source: SourceDefault, Warning: true}
}

// LineItem is one ordered product.
type LineItem struct {
	SKU      ScoredField[string]  `json:"sku"`
	Quantity ScoredField[int]     `json:"quantity"`
	Price    ScoredField[float64] `json:"price"`
}

// FillDefaults replaces a missing quantity or price with its placeholder.
func (li *LineItem) FillDefaults() {
	if li.Quantity.IsEmpty() {
		li.Quantity = DefaultQuantityField()
	}
	if li.Price.IsEmpty() {
		li.Price = DefaultPriceField()
	}
}

// StructuredOrder is the working record for one document while extractors run.
type StructuredOrder struct {
	Customer        ScoredField[string] `json:"customer"`
	OrderID         ScoredField[string] `json:"order_id"`
	ShippingAddress ScoredField[string] `json:"shipping_address"`
	LineItems       []LineItem          `json:"line_items"`
}

// Field names used in confidence maps, logs and exports.
const (
	FieldCustomer        = "customer"
	FieldOrderID         = "order_id"
	FieldShippingAddress = "shipping_address"
	FieldLineItems       = "line_items"
)

// MissingFields lists the required fields that are still empty.
func (o *StructuredOrder) MissingFields() []string {
	var missing []string
	if o.Customer.Value == "" {
		missing = append(missing, FieldCustomer)
	}
	if o.OrderID.Value == "" {
		missing = append(missing, FieldOrderID)
	}
	if o.ShippingAddress.Value == "" {
		missing = append(missing, FieldShippingAddress)
	}
	if len(o.LineItems) == 0 {
		missing = append(missing, FieldLineItems)
	}
	return missing
}

// Entity is a grouped span recognised by the NER model.
type Entity struct {
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Confidence float64    `json:"confidence"`
}

// TokenLogits is the raw output of one token-classification forward pass.
// Special marks start/end/pad tokens; it may be shorter than Tokens or nil.
type TokenLogits struct {
	Tokens  []string    `json:"tokens"`
	Logits  [][]float64 `json:"logits"`
	Special []bool      `json:"special_tokens_mask,omitempty"`
}

// ChatRequest is a single system+user completion request.
type ChatRequest struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ConfidenceMap holds per-field and overall confidence for a result.
type ConfidenceMap struct {
	Customer        float64 `json:"customer"`
	OrderID         float64 `json:"order_id"`
	ShippingAddress float64 `json:"shipping_address"`
	LineItems       float64 `json:"line_items"`
	Overall         float64 `json:"overall"`
}

// LineItemOutput is the flattened form of a LineItem.
type LineItemOutput struct {
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ParseResult is what callers receive for one document.
type ParseResult struct {
	RequestID         string           `json:"request_id,omitempty"`
	Customer          string           `json:"customer"`
	OrderID           string           `json:"order_id"`
	ShippingAddress   string           `json:"shipping_address"`
	LineItems         []LineItemOutput `json:"line_items"`
	Confidence        ConfidenceMap    `json:"confidence"`
	ExtractionDetails StructuredOrder  `json:"extraction_details"`
	Source            Source           `json:"source,omitempty"`
	Path              ExtractionPath   `json:"parser_used,omitempty"`
	Model             string           `json:"model,omitempty"`
	Error             string           `json:"error,omitempty"`
	FailureKind       FailureKind      `json:"failure_kind,omitempty"`
	ProcessingTimeMS  int64            `json:"processing_time_ms"`
}

// NewParseResult flattens an order and its confidence map.
func NewParseResult(order *StructuredOrder, confidence ConfidenceMap) *ParseResult {
	items := make([]LineItemOutput, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		items = append(items, LineItemOutput{
			SKU:      li.SKU.Value,
			Quantity: li.Quantity.Value,
			Price:    li.Price.Value,
		})
	}
	details := *order
	if details.LineItems == nil {
		details.LineItems = []LineItem{}
	}
	return &ParseResult{
		Customer:          order.Customer.Value,
		OrderID:           order.OrderID.Value,
		ShippingAddress:   order.ShippingAddress.Value,
		LineItems:         items,
		Confidence:        confidence,
		ExtractionDetails: details,
	}
}

// EmptyResultWithError is the value returned by the LLM stage when it cannot produce a result.
func EmptyResultWithError(kind FailureKind, err error) *ParseResult {
	r := NewParseResult(&StructuredOrder{}, ConfidenceMap{})
	r.Source = SourceLLM
	r.FailureKind = kind
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Failed reports whether the result carries an error.
func (r *ParseResult) Failed() bool {
	return r.Error != ""
}

// UsageCounters is a consistent snapshot of the strategy counters.
type UsageCounters struct {
	NERUsed            int64     `json:"ner_used"`
	LLMFallbackUsed    int64     `json:"llm_fallback_used"`
	LLMForced          int64     `json:"llm_forced"`
	DocumentsProcessed int64     `json:"total_documents_processed"`
	UpdatedAt          time.Time `json:"updated_at,omitzero"`
}

// BatchEntry summarises the outcome of one file in a batch run.
type BatchEntry struct {
	File              string         `json:"file"`
	OutputFile        string         `json:"output_file,omitempty"`
	Path              ExtractionPath `json:"parser_used"`
	OrderID           string         `json:"order_id"`
	Customer          string         `json:"customer"`
	LineItemCount     int            `json:"line_item_count"`
	OverallConfidence float64        `json:"confidence"`
	ProcessingTime    time.Duration  `json:"processing_time"`
	Error             string         `json:"error,omitempty"`
	Skipped           bool           `json:"skipped,omitempty"`
}

// BatchSummary is the aggregate record of a batch run.
type BatchSummary struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DryRun     bool         `json:"dry_run"`
	Entries    []BatchEntry `json:"entries"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
}
