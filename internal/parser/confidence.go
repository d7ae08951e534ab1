package parser

import "orderparse/internal/domain"

// FieldWeights are the per-field weights of the overall confidence.
type FieldWeights struct {
	OrderID         float64
	LineItems       float64
	Customer        float64
	ShippingAddress float64
}

// DefaultFieldWeights favour the order id and the line items.
var DefaultFieldWeights = FieldWeights{
	OrderID:         1.5,
	LineItems:       1.3,
	Customer:        1.0,
	ShippingAddress: 0.8,
}

// completeCutoff is the confidence a field needs to count as complete.
const completeCutoff = 0.6

// ConfidenceAggregator turns per-field confidences into a ConfidenceMap.
type ConfidenceAggregator struct {
	weights FieldWeights
}

// NewConfidenceAggregator returns an aggregator using DefaultFieldWeights.
func NewConfidenceAggregator() *ConfidenceAggregator {
	return &ConfidenceAggregator{weights: DefaultFieldWeights}
}

// NewConfidenceAggregatorWithWeights returns an aggregator with custom weights.
func NewConfidenceAggregatorWithWeights(w FieldWeights) *ConfidenceAggregator {
	return &ConfidenceAggregator{weights: w}
}

// Aggregate computes the confidence map of order. The overall score is the weighted
// mean of the four fields discounted by how many of them are complete:
// overall = weighted_mean * (0.7 + 0.3 * completeness).
func (a *ConfidenceAggregator) Aggregate(order *domain.StructuredOrder) domain.ConfidenceMap {
	m := domain.ConfidenceMap{
		Customer:        order.Customer.Confidence,
		OrderID:         order.OrderID.Confidence,
		ShippingAddress: order.ShippingAddress.Confidence,
		LineItems:       LineItemsConfidence(order.LineItems),
	}

	w := a.weights
	total := w.OrderID + w.LineItems + w.Customer + w.ShippingAddress
	if total <= 0 {
		return m
	}
	weighted := (m.OrderID*w.OrderID + m.LineItems*w.LineItems +
		m.Customer*w.Customer + m.ShippingAddress*w.ShippingAddress) / total

	complete := 0
	for _, c := range []float64{m.Customer, m.OrderID, m.ShippingAddress, m.LineItems} {
		if c > completeCutoff {
			complete++
		}
	}
	completeness := float64(complete) / 4

	m.Overall = clamp01(weighted * (0.7 + 0.3*completeness))
	return m
}

// LineItemsConfidence is the mean sku confidence of items, or 0 without items.
func LineItemsConfidence(items []domain.LineItem) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, li := range items {
		sum += li.SKU.Confidence
	}
	return sum / float64(len(items))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
