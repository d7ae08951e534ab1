package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"orderparse/internal/domain"
	"orderparse/internal/parser"
)

func item(sku string, conf float64) domain.LineItem {
	return domain.LineItem{
		SKU:      domain.Scored(sku, conf, domain.SourceRegex),
		Quantity: domain.Scored(1, conf, domain.SourceRegex),
		Price:    domain.Scored(1.0, conf, domain.SourceRegex),
	}
}

func TestConfidenceAggregator_Empty(t *testing.T) {
	m := parser.NewConfidenceAggregator().Aggregate(&domain.StructuredOrder{})

	assert.Equal(t, domain.ConfidenceMap{}, m)
}

func TestConfidenceAggregator_AllFieldsHigh(t *testing.T) {
	order := &domain.StructuredOrder{
		Customer:        domain.Scored("Acme", 0.95, domain.SourceRegex),
		OrderID:         domain.Scored("PO-1", 0.99, domain.SourceRegex),
		ShippingAddress: domain.Scored("1 Main St", 0.92, domain.SourceRegex),
		LineItems:       []domain.LineItem{item("AB-12", 0.95), item("CD-34", 0.85)},
	}

	m := parser.NewConfidenceAggregator().Aggregate(order)

	assert.Equal(t, 0.95, m.Customer)
	assert.Equal(t, 0.99, m.OrderID)
	assert.Equal(t, 0.92, m.ShippingAddress)
	assert.InDelta(t, 0.9, m.LineItems, 1e-9)
	// full completeness leaves the weighted mean unchanged
	want := (0.99*1.5 + 0.9*1.3 + 0.95*1.0 + 0.92*0.8) / 4.6
	assert.InDelta(t, want, m.Overall, 1e-9)
}

func TestConfidenceAggregator_CompletenessDiscount(t *testing.T) {
	order := &domain.StructuredOrder{
		OrderID: domain.Scored("PO-1", 0.99, domain.SourceRegex),
	}

	m := parser.NewConfidenceAggregator().Aggregate(order)

	weighted := 0.99 * 1.5 / 4.6
	assert.InDelta(t, weighted*(0.7+0.3*0.25), m.Overall, 1e-9)
	assert.Less(t, m.Overall, 0.6)
}

func TestConfidenceAggregator_OverallInUnitRange(t *testing.T) {
	agg := parser.NewConfidenceAggregator()
	for _, c := range []float64{0, 0.1, 0.5, 0.6, 0.61, 0.9, 1} {
		order := &domain.StructuredOrder{
			Customer:        domain.Scored("x", c, domain.SourceNER),
			OrderID:         domain.Scored("y", c, domain.SourceNER),
			ShippingAddress: domain.Scored("z", c, domain.SourceNER),
			LineItems:       []domain.LineItem{item("AB-12", c)},
		}
		m := agg.Aggregate(order)
		assert.GreaterOrEqual(t, m.Overall, 0.0)
		assert.LessOrEqual(t, m.Overall, 1.0)
	}
}

func TestConfidenceAggregator_CustomWeights(t *testing.T) {
	agg := parser.NewConfidenceAggregatorWithWeights(parser.FieldWeights{Customer: 1})
	order := &domain.StructuredOrder{Customer: domain.Scored("Acme", 0.8, domain.SourceRegex)}

	m := agg.Aggregate(order)

	assert.InDelta(t, 0.8*(0.7+0.3*0.25), m.Overall, 1e-9)
}

func TestLineItemsConfidence(t *testing.T) {
	assert.Equal(t, 0.0, parser.LineItemsConfidence(nil))
	assert.InDelta(t, 0.7, parser.LineItemsConfidence([]domain.LineItem{item("AB-12", 0.9), item("CD-34", 0.5)}), 1e-9)
}
