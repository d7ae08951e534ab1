package parser

import "orderparse/internal/domain"

// Merge outcomes recorded per field.
const (
	MergeKept     = "kept"
	MergeFilled   = "filled"
	MergeReplaced = "replaced"
)

// MergeField writes cand into cur when cur is empty or cand is strictly more confident.
// An empty candidate never wins. It returns the outcome.
func MergeField[T any](cur *domain.ScoredField[T], cand domain.ScoredField[T]) string {
	if cand.IsEmpty() {
		return MergeKept
	}
	if cur.IsEmpty() {
		*cur = cand
		return MergeFilled
	}
	if cand.Confidence > cur.Confidence {
		*cur = cand
		return MergeReplaced
	}
	return MergeKept
}

// MergeOrders folds a later stage's result into base and reports the outcome for each
// scalar field. Line items from later are appended; deduplication is left to the validator.
func MergeOrders(base, later *domain.StructuredOrder) map[string]string {
	provenance := make(map[string]string, 4)
	if later == nil {
		return provenance
	}
	provenance[domain.FieldCustomer] = MergeField(&base.Customer, later.Customer)
	provenance[domain.FieldOrderID] = MergeField(&base.OrderID, later.OrderID)
	provenance[domain.FieldShippingAddress] = MergeField(&base.ShippingAddress, later.ShippingAddress)

	switch {
	case len(later.LineItems) == 0:
		provenance[domain.FieldLineItems] = MergeKept
	case len(base.LineItems) == 0:
		provenance[domain.FieldLineItems] = MergeFilled
	default:
		provenance[domain.FieldLineItems] = "appended"
	}
	base.LineItems = append(base.LineItems, later.LineItems...)
	return provenance
}
