package validator

import (
	"orderparse/internal/domain"
)

// ApplyWarnings sets the warning flag on every populated field of order whose confidence is
// under threshold. Fields recovered by a regex fallback rule are exempt, and defaulted line
// item values always warn.
func ApplyWarnings(order *domain.StructuredOrder, threshold float64) {
	flagString(&order.Customer, threshold)
	flagString(&order.OrderID, threshold)
	flagString(&order.ShippingAddress, threshold)
	for i := range order.LineItems {
		li := &order.LineItems[i]
		flagString(&li.SKU, threshold)
		li.Quantity.Warning = warn(li.Quantity.Confidence, li.Quantity.Source, threshold)
		li.Price.Warning = warn(li.Price.Confidence, li.Price.Source, threshold)
	}
}

func flagString(f *domain.ScoredField[string], threshold float64) {
	if f.Value == "" {
		f.Warning = false
		return
	}
	f.Warning = warn(f.Confidence, f.Source, threshold)
}

func warn(confidence float64, source domain.Source, threshold float64) bool {
	switch source {
	case domain.SourceDefault:
		return true
	case domain.SourceRegexFallback, domain.SourceNone:
		return false
	}
	return confidence < threshold
}
