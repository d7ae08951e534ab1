package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"orderparse/internal/domain"
	"orderparse/internal/parser"
)

func TestMergeField(t *testing.T) {
	tests := []struct {
		name    string
		cur     domain.ScoredField[string]
		cand    domain.ScoredField[string]
		want    domain.ScoredField[string]
		outcome string
	}{
		{
			name:    "fills empty",
			cand:    domain.Scored("Acme", 0.6, domain.SourceNER),
			want:    domain.Scored("Acme", 0.6, domain.SourceNER),
			outcome: parser.MergeFilled,
		},
		{
			name:    "higher confidence replaces",
			cur:     domain.Scored("Acm", 0.5, domain.SourceRegex),
			cand:    domain.Scored("Acme", 0.6, domain.SourceNER),
			want:    domain.Scored("Acme", 0.6, domain.SourceNER),
			outcome: parser.MergeReplaced,
		},
		{
			name:    "equal confidence keeps",
			cur:     domain.Scored("Acme", 0.6, domain.SourceRegex),
			cand:    domain.Scored("Other", 0.6, domain.SourceNER),
			want:    domain.Scored("Acme", 0.6, domain.SourceRegex),
			outcome: parser.MergeKept,
		},
		{
			name:    "empty candidate keeps",
			cur:     domain.Scored("Acme", 0.2, domain.SourceRegex),
			want:    domain.Scored("Acme", 0.2, domain.SourceRegex),
			outcome: parser.MergeKept,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := tt.cur
			outcome := parser.MergeField(&cur, tt.cand)
			assert.Equal(t, tt.want, cur)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestMergeOrders(t *testing.T) {
	base := &domain.StructuredOrder{
		OrderID:   domain.Scored("PO-12345", 0.99, domain.SourceRegex),
		LineItems: []domain.LineItem{item("AB-12", 0.95)},
	}
	later := &domain.StructuredOrder{
		Customer:  domain.Scored("Acme Corporation", 0.91, domain.SourceNER),
		OrderID:   domain.Scored("PO-1", 0.8, domain.SourceNERRegex),
		LineItems: []domain.LineItem{item("CD-34", 0.7)},
	}

	prov := parser.MergeOrders(base, later)

	assert.Equal(t, "PO-12345", base.OrderID.Value)
	assert.Equal(t, "Acme Corporation", base.Customer.Value)
	assert.Len(t, base.LineItems, 2)
	assert.Equal(t, parser.MergeKept, prov[domain.FieldOrderID])
	assert.Equal(t, parser.MergeFilled, prov[domain.FieldCustomer])
	assert.Equal(t, parser.MergeKept, prov[domain.FieldShippingAddress])
	assert.Equal(t, "appended", prov[domain.FieldLineItems])
}

func TestMergeOrders_NilLater(t *testing.T) {
	base := &domain.StructuredOrder{OrderID: domain.Scored("PO-1", 0.99, domain.SourceRegex)}

	prov := parser.MergeOrders(base, nil)

	assert.Empty(t, prov)
	assert.Equal(t, "PO-1", base.OrderID.Value)
}
