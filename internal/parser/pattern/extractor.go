// Package pattern extracts order fields from raw document text with regular expressions.
// Every function in this package is pure: the same text always yields the same fields.
package pattern

import (
	"orderparse/internal/domain"
)

// Extractor is the regex stage of the extraction pipeline.
type Extractor struct{}

// NewExtractor creates a regex Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the fields found in text. Fields without a match stay at their zero value.
func (e *Extractor) Extract(text string) *domain.StructuredOrder {
	order := &domain.StructuredOrder{
		OrderID:  ExtractOrderID(text),
		Customer: ExtractCustomer(text),
	}
	order.ShippingAddress = ExtractShippingAddress(text, order.Customer.Value)
	order.LineItems = ExtractLineItems(text)

	order.Customer.Value = normalizeSpace(order.Customer.Value)
	order.OrderID.Value = normalizeSpace(order.OrderID.Value)
	if order.ShippingAddress.Value != "" {
		order.ShippingAddress.Value = cleanAddress(order.ShippingAddress.Value)
		if order.ShippingAddress.Value == "" {
			order.ShippingAddress = domain.ScoredField[string]{}
		}
	}
	order.Customer = customerFallback(text, order.Customer)
	order.Customer.Value = normalizeSpace(order.Customer.Value)
	return order
}
